package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/codevault/pkg/scheduler"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("condition not met before deadline")
}

func TestAddCronAndRunNow(t *testing.T) {
	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	s.Start()
	defer func() { _ = s.Stop() }()

	ran := make(chan struct{}, 1)

	err = s.AddCron(context.Background(), "ok", "0 0 1 1 *", func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("add cron: %v", err)
	}

	if err := s.AddCron(context.Background(), "ok", "* * * * *", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected duplicate name to fail")
	}

	if err := s.RunNow("ok"); err != nil {
		t.Fatalf("run now: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	waitFor(t, func() bool {
		info, _ := s.GetJobInfoByName("ok")
		return info.Runs == 1 && info.Status == scheduler.StatusScheduled && !info.LastSuccess.IsZero()
	})
}

func TestJobErrorIsRecorded(t *testing.T) {
	s, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	s.Start()
	defer func() { _ = s.Stop() }()

	_ = s.AddCron(context.Background(), "fails", "0 0 1 1 *", func(context.Context) error {
		return errors.New("boom")
	})

	_ = s.AddCron(context.Background(), "panics", "0 0 1 1 *", func(context.Context) error {
		panic("bad")
	})

	_ = s.RunNow("fails")
	_ = s.RunNow("panics")

	waitFor(t, func() bool {
		a, _ := s.GetJobInfoByName("fails")
		b, _ := s.GetJobInfoByName("panics")

		return a.Status == scheduler.StatusError && a.Error == "boom" && b.Status == scheduler.StatusError
	})

	infos := s.GetJobInfos()
	if len(infos) != 2 || infos[0].Name != "fails" || infos[1].Name != "panics" {
		t.Fatalf("unexpected job list: %+v", infos)
	}

	if err := s.RemoveJobByName("fails"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := s.GetJobInfoByName("fails"); err == nil {
		t.Fatal("expected removed job to be gone")
	}
}
