package main

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var (
	lookupUser = user.Lookup
	geteuid    = os.Geteuid
	setgroups  = unix.Setgroups
	setgid     = unix.Setgid
	setuid     = unix.Setuid
)

// dropPrivileges は name のユーザーとグループに切り替える。
// name が空、またはrootで実行されていない場合は何もしない
func dropPrivileges(name string, log logrus.FieldLogger) error {
	if name == "" {
		return nil
	}
	if geteuid() != 0 {
		log.WithField("user", name).Debug("rootではないためユーザーを切り替えません")
		return nil
	}

	u, err := lookupUser(name)
	if err != nil {
		return err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("uid %q: %w", u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("gid %q: %w", u.Gid, err)
	}

	// uidより先にgidを落とす
	if err := setgroups([]int{gid}); err != nil {
		return fmt.Errorf("setgroups: %w", err)
	}
	if err := setgid(gid); err != nil {
		return fmt.Errorf("setgid: %w", err)
	}
	if err := setuid(uid); err != nil {
		return fmt.Errorf("setuid: %w", err)
	}

	log.WithFields(logrus.Fields{"user": name, "uid": uid, "gid": gid}).Info("ユーザーを切り替えました")
	return nil
}
