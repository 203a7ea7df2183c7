package capture

import "math"

// MotionFilter はポインタの移動量（dx, dy）を指数平滑化で滑らかにします
type MotionFilter struct {
	smoothingFactor float64 // 0.0-1.0の範囲。1.0に近いほど滑らかになりますが、遅延が大きくなります
	lastDX          float64
	lastDY          float64
	warmUpCount     int
	currentCount    int
}

// 新しいモーションフィルターを作成します。
// smoothingFactor が0以下なら nil を返し、平滑化は行いません
func NewMotionFilter(smoothingFactor float64, warmUpCount int) *MotionFilter {
	if smoothingFactor <= 0 {
		return nil
	}
	if smoothingFactor > 1 {
		smoothingFactor = 1
	}
	return &MotionFilter{
		smoothingFactor: smoothingFactor,
		warmUpCount:     warmUpCount,
	}
}

// 移動量に平滑化を適用します。nil のフィルターはそのまま返します
func (mf *MotionFilter) Filter(dxRaw, dyRaw int) (int, int) {
	if mf == nil {
		return dxRaw, dyRaw
	}

	// ウォームアップ中は生の値を通す
	if mf.currentCount == 0 || mf.currentCount < mf.warmUpCount {
		mf.currentCount++
		mf.lastDX = float64(dxRaw)
		mf.lastDY = float64(dyRaw)
		return dxRaw, dyRaw
	}

	f := mf.smoothingFactor
	newDX := float64(dxRaw)*(1.0-f) + mf.lastDX*f
	newDY := float64(dyRaw)*(1.0-f) + mf.lastDY*f

	mf.lastDX = newDX
	mf.lastDY = newDY

	return int(math.Round(newDX)), int(math.Round(newDY))
}

// フィルターの状態をリセットします
func (mf *MotionFilter) Reset() {
	if mf == nil {
		return
	}
	mf.lastDX = 0
	mf.lastDY = 0
	mf.currentCount = 0
}
