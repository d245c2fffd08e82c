package discord

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func TestDecide(t *testing.T) {
	deadline := time.Now().Add(time.Minute)

	tests := []struct {
		name string
		conf confirmation
		now  time.Time
		want Decision
	}{
		{
			name: "confirm inside the window",
			conf: confirmation{Op: "wipe", Verdict: "confirm", UserID: "7", Deadline: deadline},
			now:  deadline.Add(-time.Second),
			want: DecisionConfirmed,
		},
		{
			name: "cancel inside the window",
			conf: confirmation{Op: "wipe", Verdict: "cancel", UserID: "7", Deadline: deadline},
			now:  deadline.Add(-time.Second),
			want: DecisionDeclined,
		},
		{
			name: "late confirm times out",
			conf: confirmation{Op: "reset", Verdict: "confirm", UserID: "7", Deadline: deadline},
			now:  deadline.Add(time.Second),
			want: DecisionTimedOut,
		},
		{
			name: "late cancel times out",
			conf: confirmation{Op: "reset", Verdict: "cancel", UserID: "7", Deadline: deadline},
			now:  deadline.Add(time.Second),
			want: DecisionTimedOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.decide(tt.now); got != tt.want {
				t.Errorf("decide() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConfirmationRoundTrip(t *testing.T) {
	want := confirmation{
		Op:       "wipe",
		Verdict:  "confirm",
		UserID:   "123456789012345678",
		Deadline: time.Unix(1756600000, 0),
	}

	got, ok := parseConfirmation(want.customID())
	if !ok {
		t.Fatalf("parseConfirmation(%q) did not parse", want.customID())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseConfirmation() mismatch (-want +got):\n%s", diff)
	}

	if _, ok := parseConfirmation("hist:emoji:2"); ok {
		t.Error("parseConfirmation() accepted a pager custom id")
	}
}

// Both buttons of one prompt must resolve to the same expiry timer.
func TestTimerKeySharedAcrossButtons(t *testing.T) {
	deadline := time.Unix(1756600000, 0)
	confirm := confirmation{Op: "reset", Verdict: "confirm", UserID: "7", Deadline: deadline}
	cancel := confirmation{Op: "reset", Verdict: "cancel", UserID: "7", Deadline: deadline}

	if confirm.timerKey() != cancel.timerKey() {
		t.Errorf("timerKey() differs across buttons: %q vs %q", confirm.timerKey(), cancel.timerKey())
	}
}

func TestCancelConfirmExpiry(t *testing.T) {
	b := &Bot{l: zap.NewNop().Sugar()}
	conf := confirmation{Op: "wipe", Verdict: "confirm", UserID: "7", Deadline: time.Now().Add(time.Hour)}

	fired := make(chan struct{})
	b.confirmTimers.Store(conf.timerKey(), time.AfterFunc(time.Hour, func() { close(fired) }))

	b.cancelConfirmExpiry(conf)

	if _, ok := b.confirmTimers.Load(conf.timerKey()); ok {
		t.Error("timer still registered after cancel")
	}
	select {
	case <-fired:
		t.Error("timer fired after cancel")
	default:
	}

	// A second cancel for the same prompt is a no-op.
	b.cancelConfirmExpiry(conf)
}
