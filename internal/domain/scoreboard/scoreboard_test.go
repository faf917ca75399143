package scoreboard_test

import (
	"testing"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/scoreboard"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClockFormatting(t *testing.T) {
	Convey("Given elapsed match seconds", t, func() {
		Convey("Then the clock is zero padded mm:ss", func() {
			So(scoreboard.FormatClock(125), ShouldEqual, "02:05")
			So(scoreboard.FormatClock(0), ShouldEqual, "00:00")
			So(scoreboard.FormatClock(2880), ShouldEqual, "48:00")
			So(scoreboard.FormatClock(6001), ShouldEqual, "100:01")
			So(scoreboard.FormatClock(-3), ShouldEqual, "00:00")
		})

		Convey("Then the label is HT at half time regardless of elapsed", func() {
			for _, secs := range []int{0, 125, 2700, 9999} {
				So(scoreboard.ClockLabel(model.PhaseHalfTime, secs), ShouldEqual, "HT")
			}
		})

		Convey("Then the label is FT once ended and mm:ss otherwise", func() {
			So(scoreboard.ClockLabel(model.PhaseEnded, 5400), ShouldEqual, "FT")
			So(scoreboard.ClockLabel(model.PhaseLive, 125), ShouldEqual, "02:05")
			So(scoreboard.ClockLabel(model.PhasePaused, 61), ShouldEqual, "01:01")
		})
	})
}

func TestPhaseText(t *testing.T) {
	Convey("Given a 45 minute half", t, func() {
		half := 45 * 60

		Convey("Then live text switches at the half length", func() {
			So(scoreboard.PhaseText(model.PhaseLive, half-1, half), ShouldEqual, "First Half")
			So(scoreboard.PhaseText(model.PhaseLive, half, half), ShouldEqual, "Second Half")
		})

		Convey("Then stopped phases override the half", func() {
			So(scoreboard.PhaseText(model.PhaseNotStarted, 0, half), ShouldEqual, "Game Not Started")
			So(scoreboard.PhaseText(model.PhasePaused, 10, half), ShouldEqual, "Paused")
			So(scoreboard.PhaseText(model.PhaseHalfTime, half, half), ShouldEqual, "Half Time")
			So(scoreboard.PhaseText(model.PhaseEnded, 2*half, half), ShouldEqual, "Game Ended")
		})
	})
}

func TestGoalsAndShares(t *testing.T) {
	Convey("Given goals", t, func() {
		Convey("Then assisted goals show the assist and minute", func() {
			line := scoreboard.GoalLine(model.GoalEvent{ID: "1", Scorer: "Erik", Assist: "Olaf", Time: 754})
			So(line.Minute, ShouldEqual, "12'")
			So(line.Text, ShouldEqual, "Erik (Olaf) 12'")
		})

		Convey("Then penalties are marked", func() {
			line := scoreboard.GoalLine(model.GoalEvent{ID: "2", Scorer: "Smaug", Time: 59, Penalty: true})
			So(line.Text, ShouldEqual, "Smaug 0' (P)")
		})
	})

	Convey("Given stat comparisons", t, func() {
		So(scoreboard.StatShare(0, 0), ShouldEqual, 50.0)
		So(scoreboard.StatShare(3, 1), ShouldEqual, 75.0)
		So(scoreboard.StatShare(0, 4), ShouldEqual, 0.0)
	})
}

func TestBoard(t *testing.T) {
	Convey("Given a scoreboard", t, func() {
		sb := scoreboard.New(scoreboard.WithHalfLength(40))

		Convey("When no teams are selected", func() {
			board := sb.Board(model.Default())

			Convey("Then no game is in progress", func() {
				So(board.InProgress, ShouldBeFalse)
				So(board.PhaseText, ShouldEqual, "Game Not Started")
				So(board.Stats, ShouldBeEmpty)
			})
		})

		Convey("When a match is being played", func() {
			s, _ := model.Default().Configure("Vikings", "Warriors")
			s, _ = s.Start()
			s.ElapsedSeconds = 40 * 60
			s, _ = s.RecordGoal("Vikings", s.NewGoal("g1", "Erik", "", true))
			s, _ = s.AdjustCounter("Vikings", model.CounterShots, 3)
			s, _ = s.AdjustCounter("Warriors", model.CounterShots, 1)
			s, _ = s.RecordCard("Warriors", model.CardYellow, s.NewCard("c1", "Bjorn"))
			board := sb.Board(s)

			Convey("Then the panels carry score and colours", func() {
				So(board.InProgress, ShouldBeTrue)
				So(board.PhaseText, ShouldEqual, "Second Half")
				So(board.Clock, ShouldEqual, "40:00")
				So(board.Home.Name, ShouldEqual, "Vikings")
				So(board.Home.Score, ShouldEqual, 1)
				So(board.Home.Color, ShouldEqual, "#ef4444")
				So(board.Away.TextColor, ShouldEqual, "#000000")
				So(board.Home.Goals[0].Text, ShouldEqual, "Erik 40' (P)")
			})

			Convey("Then the stat lines compare both sides", func() {
				So(board.Stats, ShouldHaveLength, 5)
				So(board.Stats[0].Label, ShouldEqual, "Shots")
				So(board.Stats[0].HomeShare, ShouldEqual, 75.0)
				So(board.Stats[3].Label, ShouldEqual, "Yellow Cards")
				So(board.Stats[3].HomeShare, ShouldEqual, 0.0)
				So(board.Stats[4].HomeShare, ShouldEqual, 50.0)
			})
		})
	})
}
