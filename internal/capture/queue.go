package capture

import "context"

// batchReader は pump から届いたまとまりを1件ずつ取り出す。
// まとまりの残りは PollEvent から待たずに見える。呼び出しは1つのゴルーチンから
type batchReader struct {
	ch     <-chan []Event
	queued []Event
}

func (r *batchReader) next(ctx context.Context) (Event, error) {
	for len(r.queued) == 0 {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case batch, ok := <-r.ch:
			if !ok {
				return Event{}, ErrDisplayClosed
			}
			r.queued = batch
		}
	}
	return r.pop(), nil
}

func (r *batchReader) poll() (Event, bool, error) {
	for len(r.queued) == 0 {
		select {
		case batch, ok := <-r.ch:
			if !ok {
				return Event{}, false, ErrDisplayClosed
			}
			r.queued = batch
		default:
			return Event{}, false, nil
		}
	}
	return r.pop(), true, nil
}

func (r *batchReader) pop() Event {
	ev := r.queued[0]
	r.queued = r.queued[1:]
	return ev
}
