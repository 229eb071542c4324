package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/daystore"
	"github.com/m72elite/m72/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session is an opened database plus the tracker document in its slot.
type session struct {
	ctx   context.Context
	path  string
	db    *storage.DB
	store *daystore.Store
	lock  *utils.DBLock
}

// openSession opens the database and the configured slot. Writers hold the
// file lock until Close so two m72 processes never interleave saves; they
// wait at most lock.timeout for another writer (0 waits forever).
func openSession(cmd *cobra.Command, write bool) (*session, error) {
	path, err := utils.GetAbsDBPath(viper.GetString("dbpath"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}

	s := &session{ctx: cmd.Context(), path: path}
	if s.ctx == nil {
		s.ctx = context.Background()
	}

	if write {
		lock, err := utils.NewDBLock(path)
		if err != nil {
			return nil, err
		}
		lockCtx, cancel := s.ctx, context.CancelFunc(func() {})
		if d := viper.GetDuration("lock.timeout"); d > 0 {
			lockCtx, cancel = context.WithTimeout(s.ctx, d)
		}
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			return nil, err
		}
		s.lock = lock
	}

	s.db, err = storage.Open(path)
	if err != nil {
		s.Close()
		return nil, err
	}

	loc, err := location()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store, err = daystore.Open(s.ctx, s.db.Slot(viper.GetString("slot")), daystore.WithLocation(loc))
	if err != nil {
		s.Close()
		return nil, err
	}
	utils.Log.Debugf("Opened slot %q in %s", viper.GetString("slot"), path)
	return s, nil
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			utils.Log.Warn(err)
		}
	}
}

// location returns the zone configured under "timezone", or the local zone.
func location() (*time.Location, error) {
	name := viper.GetString("timezone")
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// parseDateArg reads "today", "yesterday", "tomorrow", a signed day offset
// such as -3 or +1, or a YYYY-MM-DD key.
func parseDateArg(arg string, today calendar.Date) (calendar.Date, error) {
	switch a := strings.ToLower(strings.TrimSpace(arg)); a {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	case "tomorrow":
		return today.AddDays(1), nil
	default:
		if a[0] == '+' || a[0] == '-' {
			n, err := strconv.Atoi(a)
			if err != nil {
				return calendar.Date{}, fmt.Errorf("invalid day offset %q", arg)
			}
			return today.AddDays(n), nil
		}
		return calendar.Parse(a)
	}
}

// targetDate resolves the --date flag of cmd. Without the flag the selected
// day is used.
func (s *session) targetDate(cmd *cobra.Command) (calendar.Date, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return s.store.SelectedDate(), nil
	}
	return parseDateArg(raw, s.store.Today())
}

func addDateFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("date", "D", "", "Day to act on: YYYY-MM-DD, today, yesterday or an offset like -2 (default: selected day)")
}

func formatDay(d, today calendar.Date) string {
	switch today.DaysUntil(d) {
	case 0:
		return "Today"
	case -1:
		return "Yesterday"
	}
	return d.Format("Mon, Jan 2 2006")
}
