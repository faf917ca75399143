package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/model"
)

func playedMatch() model.State {
	s, _ := model.Default().Configure("Vikings", "Dragons")
	s, _ = s.Start()
	s.ElapsedSeconds = 600
	s, _ = s.RecordGoal("Vikings", s.NewGoal("g-1", "Erik", "Olaf", false))
	s, _ = s.RecordCard("Dragons", model.CardYellow, s.NewCard("c-1", "Smaug"))
	s, _ = s.AdjustCounter("Dragons", model.CounterFouls, 2)
	return s
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a temp dir", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "state.json")
		store := repository.NewFileStore(path)

		Convey("When nothing was saved", func() {
			_, err := store.Load(ctx)

			Convey("Then it reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a match is saved and loaded", func() {
			want := playedMatch()
			So(store.Save(ctx, want), ShouldBeNil)
			got, err := store.Load(ctx)

			Convey("Then the state comes back intact", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
				So(store.Path(), ShouldEqual, path)
			})

			Convey("And no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})

			Convey("And saving again overwrites", func() {
				So(store.Save(ctx, model.Default()), ShouldBeNil)
				got, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, model.Default())
			})
		})

		Convey("When the file holds garbage", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte("{not json"), 0o644), ShouldBeNil)
			_, err := store.Load(ctx)

			Convey("Then it reports a corrupt snapshot", func() {
				So(errors.Is(err, repository.ErrCorruptSnapshot), ShouldBeTrue)
			})
		})

		Convey("When the file holds an impossible state", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte(`{"phase":"overtime","elapsed_seconds":3}`), 0o644), ShouldBeNil)
			_, err := store.Load(ctx)

			Convey("Then it reports a corrupt snapshot", func() {
				So(errors.Is(err, repository.ErrCorruptSnapshot), ShouldBeTrue)
			})
		})

		Convey("When an older snapshot omits slices", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			raw := `{"phase":"half_time","elapsed_seconds":2700,"team_a":"Lions","team_b":"Falcons","statistics":{"Lions":{"shots":4}}}`
			So(os.WriteFile(path, []byte(raw), 0o644), ShouldBeNil)
			got, err := store.Load(ctx)

			Convey("Then missing parts are filled in", func() {
				So(err, ShouldBeNil)
				So(got.Phase, ShouldEqual, model.PhaseHalfTime)
				So(got.Statistics["Lions"].Shots, ShouldEqual, 4)
				So(got.Statistics["Lions"].Goals, ShouldNotBeNil)
				So(got.Statistics["Falcons"], ShouldResemble, model.NewTeamStats())
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(store.Save(cctx, model.Default()), ShouldNotBeNil)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()

		Convey("When empty", func() {
			_, err := store.Load(ctx)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When saving", func() {
			want := playedMatch()
			So(store.Save(ctx, want), ShouldBeNil)
			got, err := store.Load(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, want)
			So(store.Saves(), ShouldEqual, 1)
		})

		Convey("When preloaded with corrupt data", func() {
			bad := repository.NewMemoryStoreWithData([]byte(`{"phase":"live","team_a":"Lions","team_b":"Lions"}`))
			_, err := bad.Load(ctx)
			So(errors.Is(err, repository.ErrCorruptSnapshot), ShouldBeTrue)
		})
	})
}
