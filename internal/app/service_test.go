package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/model"
)

type harness struct {
	svc   *service.Service
	clock *clockwork.FakeClock
	store *repository.MemoryStore
}

func newHarness(store *repository.MemoryStore, opts ...service.Option) harness {
	fake := clockwork.NewFakeClock()
	if store == nil {
		store = repository.NewMemoryStore()
	}
	ids := 0
	var idMu sync.Mutex
	base := []service.Option{
		service.WithClock(fake),
		service.WithStore(store),
		service.WithTickInterval(time.Second),
		service.WithAdminPassword("letmein"),
		service.WithBcryptCost(bcrypt.MinCost),
		service.WithSessionSecret("test-secret"),
		service.WithIDGenerator(func() string {
			idMu.Lock()
			defer idMu.Unlock()
			ids++
			return fmt.Sprintf("id-%d", ids)
		}),
	}
	return harness{svc: service.New(append(base, opts...)...), clock: fake, store: store}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

// tick advances the fake clock one interval and waits for the match clock to follow.
func (h harness) tick(ctx context.Context) bool {
	before := h.svc.Snapshot().ElapsedSeconds
	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		return false
	}
	h.clock.Advance(time.Second)
	return waitFor(func() bool { return h.svc.Snapshot().ElapsedSeconds == before+1 })
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h := newHarness(nil)
		defer h.svc.Stop()

		Convey("When starting the service", func() {
			err := h.svc.Start(ctx)

			Convey("Then it should start with the default match", func() {
				So(err, ShouldBeNil)
				So(h.svc.Snapshot(), ShouldResemble, model.Default())
				stats := h.svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["phase"], ShouldEqual, "not_started")
				So(stats["clockRunning"], ShouldEqual, false)
			})

			Convey("And starting twice is a no-op", func() {
				So(h.svc.Start(ctx), ShouldBeNil)
			})

			Convey("And a stopped service cannot be restarted", func() {
				h.svc.Stop()
				So(errors.Is(h.svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
				So(h.svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When the admin password cannot be hashed", func() {
			bad := service.New(service.WithAdminPassword(""), service.WithBcryptCost(bcrypt.MinCost))
			err := bad.Start(ctx)

			Convey("Then start fails", func() {
				So(errors.Is(err, service.ErrAuthSetup), ShouldBeTrue)
			})
		})

		Convey("Then the catalog is exposed", func() {
			So(h.svc.Teams().Names(), ShouldResemble, model.DefaultCatalog.Names())
		})
	})
}

func TestService_ConfigureAndReset(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		h := newHarness(nil)
		So(h.svc.Start(ctx), ShouldBeNil)
		defer h.svc.Stop()

		Convey("When configuring Vikings vs Dragons", func() {
			st, err := h.svc.ConfigureMatch(ctx, "Vikings", "Dragons")

			Convey("Then both teams get empty ledgers", func() {
				So(err, ShouldBeNil)
				So(st.TeamA, ShouldEqual, "Vikings")
				So(st.Statistics, ShouldContainKey, "Dragons")
				So(h.svc.Board().InProgress, ShouldBeTrue)
			})

			Convey("And resetting yields the default state", func() {
				So(h.svc.ResetAll(ctx), ShouldResemble, model.Default())
				So(h.svc.Snapshot(), ShouldResemble, model.Default())
			})
		})

		Convey("When the teams are identical", func() {
			_, err := h.svc.ConfigureMatch(ctx, "Lions", "Lions")

			Convey("Then nothing changes", func() {
				So(errors.Is(err, model.ErrInvalidTeams), ShouldBeTrue)
				So(h.svc.Snapshot(), ShouldResemble, model.Default())
			})
		})

		Convey("When a team is not in the league", func() {
			_, err := h.svc.ConfigureMatch(ctx, "Lions", "Rovers")

			Convey("Then it is refused", func() {
				So(errors.Is(err, model.ErrUnknownTeam), ShouldBeTrue)
				So(h.svc.Snapshot().Configured(), ShouldBeFalse)
			})
		})
	})
}

func TestService_Clock(t *testing.T) {
	Convey("Given a configured match on a fake clock", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h := newHarness(nil)
		So(h.svc.Start(ctx), ShouldBeNil)
		defer h.svc.Stop()
		_, err := h.svc.ConfigureMatch(ctx, "Vikings", "Dragons")
		So(err, ShouldBeNil)

		Convey("When the match starts and five seconds pass", func() {
			_, err := h.svc.StartMatch(ctx)
			So(err, ShouldBeNil)
			for i := 0; i < 5; i++ {
				So(h.tick(ctx), ShouldBeTrue)
			}

			Convey("Then five seconds have elapsed and the match is live", func() {
				st := h.svc.Snapshot()
				So(st.ElapsedSeconds, ShouldEqual, 5)
				So(st.Phase, ShouldEqual, model.PhaseLive)
				So(h.svc.GetStats()["clockRunning"], ShouldEqual, true)
			})

			Convey("And half time stops the clock until resumed", func() {
				_, err := h.svc.SetHalfTime(ctx)
				So(err, ShouldBeNil)
				So(h.svc.Board().Clock, ShouldEqual, "HT")
				h.clock.Advance(10 * time.Second)
				time.Sleep(20 * time.Millisecond)
				So(h.svc.Snapshot().ElapsedSeconds, ShouldEqual, 5)

				st, err := h.svc.ResumeMatch(ctx)
				So(err, ShouldBeNil)
				So(st.ElapsedSeconds, ShouldEqual, 5)
				So(h.tick(ctx), ShouldBeTrue)
				So(h.svc.Snapshot().ElapsedSeconds, ShouldEqual, 6)
			})

			Convey("And pause keeps the elapsed time", func() {
				st, err := h.svc.PauseMatch(ctx)
				So(err, ShouldBeNil)
				So(st.Phase, ShouldEqual, model.PhasePaused)
				So(h.svc.GetStats()["clockRunning"], ShouldEqual, false)
				h.clock.Advance(3 * time.Second)
				time.Sleep(20 * time.Millisecond)
				So(h.svc.Snapshot().ElapsedSeconds, ShouldEqual, 5)
			})

			Convey("And ending is terminal until reset", func() {
				_, err := h.svc.EndMatch(ctx)
				So(err, ShouldBeNil)
				_, err = h.svc.ResumeMatch(ctx)
				So(errors.Is(err, model.ErrInvalidTransition), ShouldBeTrue)
				So(h.svc.Board().Clock, ShouldEqual, "FT")
			})
		})

		Convey("When extra time is added at 45:00", func() {
			_, err := h.svc.StartMatch(ctx)
			So(err, ShouldBeNil)
			_, err = h.svc.PauseMatch(ctx)
			So(err, ShouldBeNil)
			st, err := h.svc.AddExtraTime(ctx, 45)
			So(err, ShouldBeNil)
			So(st.ElapsedSeconds, ShouldEqual, 2700)
			st, err = h.svc.AddExtraTime(ctx, 3)

			Convey("Then the clock reads 48:00 and the phase is unchanged", func() {
				So(err, ShouldBeNil)
				So(st.ElapsedSeconds, ShouldEqual, 2880)
				So(st.Phase, ShouldEqual, model.PhasePaused)
			})

			Convey("And half time is refused after ninety minutes", func() {
				st, err := h.svc.AddExtraTime(ctx, 42)
				So(err, ShouldBeNil)
				So(st.ElapsedSeconds, ShouldEqual, 5400)
				_, err = h.svc.SetHalfTime(ctx)
				So(errors.Is(err, model.ErrInvalidTransition), ShouldBeTrue)
				So(h.svc.Snapshot().Phase, ShouldEqual, model.PhasePaused)
			})

			Convey("And an oversized request leaves the clock alone", func() {
				_, err := h.svc.AddExtraTime(ctx, math.MaxInt/60+1)
				So(errors.Is(err, model.ErrInvalidExtraTime), ShouldBeTrue)
				So(h.svc.Snapshot().ElapsedSeconds, ShouldEqual, 2880)
			})
		})

		Convey("When a transition is not allowed", func() {
			before := h.svc.Snapshot()
			_, err := h.svc.PauseMatch(ctx)

			Convey("Then the state is untouched", func() {
				So(errors.Is(err, model.ErrInvalidTransition), ShouldBeTrue)
				So(h.svc.Snapshot(), ShouldResemble, before)
			})
		})
	})
}

func TestService_Ledger(t *testing.T) {
	Convey("Given a live match", t, func() {
		ctx := context.Background()
		h := newHarness(nil)
		So(h.svc.Start(ctx), ShouldBeNil)
		defer h.svc.Stop()
		_, _ = h.svc.ConfigureMatch(ctx, "Vikings", "Dragons")
		_, err := h.svc.StartMatch(ctx)
		So(err, ShouldBeNil)

		Convey("When a goal is recorded and deleted", func() {
			before := h.svc.Snapshot().Statistics["Vikings"]
			goal, err := h.svc.RecordGoal(ctx, "Vikings", "Erik", "Olaf", false)
			So(err, ShouldBeNil)
			So(goal.ID, ShouldNotBeEmpty)
			So(h.svc.Board().Home.Score, ShouldEqual, 1)

			Convey("Then the ledger is restored", func() {
				So(h.svc.DeleteGoal(ctx, "Vikings", goal.ID), ShouldBeNil)
				So(h.svc.Snapshot().Statistics["Vikings"], ShouldResemble, before)
			})
		})

		Convey("When cards and counters are recorded", func() {
			card, err := h.svc.RecordCard(ctx, "Dragons", model.CardRed, "Smaug")
			So(err, ShouldBeNil)
			So(card.Player, ShouldEqual, "Smaug")

			stats, err := h.svc.AdjustCounter(ctx, "Dragons", model.CounterShots, 2)
			So(err, ShouldBeNil)
			So(stats.Shots, ShouldEqual, 2)
			So(stats.RedCards, ShouldHaveLength, 1)
		})

		Convey("When decrementing a zero counter", func() {
			for _, d := range []int{0, 1, 5, 100} {
				stats, err := h.svc.AdjustCounter(ctx, "Vikings", model.CounterShots, -d)
				So(err, ShouldBeNil)
				So(stats.Shots, ShouldEqual, 0)
			}
		})

		Convey("When the match is not live", func() {
			goal, _ := h.svc.RecordGoal(ctx, "Vikings", "Erik", "", false)
			_, err := h.svc.SetHalfTime(ctx)
			So(err, ShouldBeNil)
			before := h.svc.Snapshot()

			_, e1 := h.svc.RecordGoal(ctx, "Vikings", "Erik", "", true)
			e2 := h.svc.DeleteGoal(ctx, "Vikings", goal.ID)
			_, e3 := h.svc.RecordCard(ctx, "Vikings", model.CardYellow, "Olaf")
			_, e4 := h.svc.AdjustCounter(ctx, "Vikings", model.CounterFouls, 1)

			Convey("Then no ledger call changes the statistics", func() {
				for _, e := range []error{e1, e2, e3, e4} {
					So(errors.Is(e, model.ErrEditingLocked), ShouldBeTrue)
				}
				So(h.svc.Snapshot().Statistics, ShouldResemble, before.Statistics)
			})
		})

		Convey("When addressing a team outside the match", func() {
			_, err := h.svc.RecordGoal(ctx, "Lions", "Leo", "", false)
			So(errors.Is(err, model.ErrUnknownTeam), ShouldBeTrue)
		})
	})
}

func TestService_Idempotent(t *testing.T) {
	Convey("Given a live match", t, func() {
		ctx := context.Background()
		h := newHarness(nil)
		So(h.svc.Start(ctx), ShouldBeNil)
		defer h.svc.Stop()
		_, _ = h.svc.ConfigureMatch(ctx, "Vikings", "Dragons")
		_, _ = h.svc.StartMatch(ctx)

		record := func() (any, error) {
			return h.svc.RecordGoal(ctx, "Vikings", "Erik", "", false)
		}

		Convey("When the same key is used twice", func() {
			first, replayed1, err1 := h.svc.Idempotent(ctx, "k-1", record)
			second, replayed2, err2 := h.svc.Idempotent(ctx, "k-1", record)

			Convey("Then the goal is recorded once and replayed", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(replayed1, ShouldBeFalse)
				So(replayed2, ShouldBeTrue)
				So(second, ShouldResemble, first)
				So(h.svc.Snapshot().Statistics["Vikings"].Goals, ShouldHaveLength, 1)
			})
		})

		Convey("When no key is given", func() {
			_, _, _ = h.svc.Idempotent(ctx, "", record)
			_, _, _ = h.svc.Idempotent(ctx, "", record)
			So(h.svc.Snapshot().Statistics["Vikings"].Goals, ShouldHaveLength, 2)
		})

		Convey("When the first attempt is refused", func() {
			_, _ = h.svc.PauseMatch(ctx)
			_, _, err := h.svc.Idempotent(ctx, "k-2", record)
			So(errors.Is(err, model.ErrEditingLocked), ShouldBeTrue)
			_, _ = h.svc.ResumeMatch(ctx)

			Convey("Then the key can be retried", func() {
				_, replayed, err := h.svc.Idempotent(ctx, "k-2", record)
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
			})
		})
	})
}

func TestService_Subscribe(t *testing.T) {
	Convey("Given a subscriber", t, func() {
		ctx := context.Background()
		h := newHarness(nil)
		So(h.svc.Start(ctx), ShouldBeNil)
		defer h.svc.Stop()

		var mu sync.Mutex
		var updates []service.Update
		unsubscribe := h.svc.Subscribe(ctx, func(_ context.Context, u service.Update) {
			mu.Lock()
			updates = append(updates, u)
			mu.Unlock()
		})
		count := func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(updates)
		}

		Convey("Then it receives the current state immediately", func() {
			So(count(), ShouldEqual, 1)
		})

		Convey("When the state changes", func() {
			_, _ = h.svc.ConfigureMatch(ctx, "Lions", "Falcons")

			Convey("Then the update is delivered before the call returns", func() {
				So(count(), ShouldEqual, 2)
				mu.Lock()
				last := updates[len(updates)-1]
				mu.Unlock()
				So(last.State.TeamA, ShouldEqual, "Lions")
				So(last.Board.InProgress, ShouldBeTrue)
				So(last.Seq, ShouldBeGreaterThan, updates[0].Seq)
			})

			Convey("And a refused operation notifies nobody", func() {
				_, _ = h.svc.PauseMatch(ctx)
				So(count(), ShouldEqual, 2)
			})
		})

		Convey("When unsubscribed", func() {
			unsubscribe()
			unsubscribe()
			_, _ = h.svc.ConfigureMatch(ctx, "Lions", "Falcons")
			So(count(), ShouldEqual, 1)
			So(h.svc.GetStats()["subscribers"], ShouldEqual, 0)
		})
	})
}

func TestService_Persistence(t *testing.T) {
	Convey("Given a service backed by a store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store := repository.NewMemoryStore()
		h := newHarness(store)
		So(h.svc.Start(ctx), ShouldBeNil)

		_, _ = h.svc.ConfigureMatch(ctx, "Warriors", "Elites")
		_, _ = h.svc.StartMatch(ctx)
		_, _ = h.svc.RecordGoal(ctx, "Elites", "Ana", "", true)
		So(h.tick(ctx), ShouldBeTrue)
		want := h.svc.Snapshot()

		Convey("When it stops", func() {
			h.svc.Stop()

			Convey("Then the last state is in the store", func() {
				got, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
			})

			Convey("And a new service restores it and keeps ticking", func() {
				h2 := newHarness(store)
				So(h2.svc.Start(ctx), ShouldBeNil)
				defer h2.svc.Stop()

				So(h2.svc.Snapshot(), ShouldResemble, want)
				So(h2.tick(ctx), ShouldBeTrue)
				So(h2.svc.Snapshot().ElapsedSeconds, ShouldEqual, want.ElapsedSeconds+1)
			})
		})

		Reset(func() { h.svc.Stop() })
	})

	Convey("Given a corrupt snapshot", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStoreWithData([]byte(`{"phase":"bogus"`))
		h := newHarness(store)

		Convey("Then the service starts with defaults", func() {
			So(h.svc.Start(ctx), ShouldBeNil)
			defer h.svc.Stop()
			So(h.svc.Snapshot(), ShouldResemble, model.Default())
		})
	})
}

func TestService_Authenticate(t *testing.T) {
	Convey("Given a service with an admin password", t, func() {
		ctx := context.Background()
		h := newHarness(nil, service.WithSessionTTL(time.Hour))
		So(h.svc.Start(ctx), ShouldBeNil)
		defer h.svc.Stop()

		Convey("When the password is wrong", func() {
			_, err := h.svc.Authenticate(ctx, "guess")

			Convey("Then it is rejected with the admin message", func() {
				So(errors.Is(err, service.ErrIncorrectPassword), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "Incorrect password")
				So(h.svc.Snapshot().Authenticated, ShouldBeFalse)
			})
		})

		Convey("When the password is right", func() {
			session, err := h.svc.Authenticate(ctx, "letmein")

			Convey("Then a session token is issued", func() {
				So(err, ShouldBeNil)
				So(session.Token, ShouldNotBeEmpty)
				So(session.ExpiresAt, ShouldHappenAfter, h.clock.Now())
				So(h.svc.VerifySession(ctx, session.Token), ShouldBeNil)
				So(h.svc.Snapshot().Authenticated, ShouldBeTrue)
			})

			Convey("And the token expires after its ttl", func() {
				h.clock.Advance(2 * time.Hour)
				So(errors.Is(h.svc.VerifySession(ctx, session.Token), service.ErrInvalidToken), ShouldBeTrue)
			})

			Convey("And a reset clears the admin flag", func() {
				h.svc.ResetAll(ctx)
				So(h.svc.Snapshot().Authenticated, ShouldBeFalse)
			})
		})

		Convey("When the token is forged", func() {
			So(errors.Is(h.svc.VerifySession(ctx, "not.a.token"), service.ErrInvalidToken), ShouldBeTrue)
		})

		Convey("When confirming the password", func() {
			So(h.svc.CheckPassword(ctx, "letmein"), ShouldBeNil)
			So(errors.Is(h.svc.CheckPassword(ctx, "nope"), service.ErrIncorrectPassword), ShouldBeTrue)
		})
	})

	Convey("Given a pre-hashed admin password", t, func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
		So(err, ShouldBeNil)
		h := newHarness(nil, service.WithAdminPasswordHash(string(hash)))

		Convey("Then the hash is used instead of the plain password", func() {
			_, err := h.svc.Authenticate(context.Background(), "hashed-secret")
			So(err, ShouldBeNil)
			_, err = h.svc.Authenticate(context.Background(), "letmein")
			So(errors.Is(err, service.ErrIncorrectPassword), ShouldBeTrue)
		})
	})
}
