package live_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/matchday/internal/adapters/http/live"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/types"
)

func dial(url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	So(err, ShouldBeNil)
	return conn
}

func readBoard(conn *websocket.Conn) types.Board {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	So(err, ShouldBeNil)
	var board types.Board
	So(json.Unmarshal(data, &board), ShouldBeNil)
	return board
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

func TestHub(t *testing.T) {
	Convey("Given a hub subscribed to a service", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithClock(clockwork.NewFakeClock()),
			service.WithAdminPassword("pw"),
			service.WithBcryptCost(bcrypt.MinCost),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		hub := live.New(live.WithSendBuffer(4), live.WithPingInterval(time.Minute))
		unsubscribe := svc.Subscribe(ctx, hub.Publish)
		defer unsubscribe()

		srv := httptest.NewServer(hub)
		defer srv.Close()

		Convey("When a spectator connects", func() {
			conn := dial(srv.URL)
			defer conn.Close()

			Convey("Then it receives the current board", func() {
				board := readBoard(conn)
				So(board.InProgress, ShouldBeFalse)
				So(hub.Count(), ShouldEqual, 1)
			})

			Convey("And every change is pushed", func() {
				readBoard(conn)
				_, err := svc.ConfigureMatch(ctx, "Vikings", "Dragons")
				So(err, ShouldBeNil)

				board := readBoard(conn)
				So(board.InProgress, ShouldBeTrue)
				So(board.Home.Name, ShouldEqual, "Vikings")
				So(board.Away.Name, ShouldEqual, "Dragons")
			})

			Convey("And leaving removes the spectator", func() {
				readBoard(conn)
				_ = conn.Close()
				So(waitFor(func() bool { return hub.Count() == 0 }), ShouldBeTrue)
			})
		})

		Convey("When the hub closes", func() {
			conn := dial(srv.URL)
			defer conn.Close()
			readBoard(conn)
			hub.Close()

			Convey("Then spectators are disconnected", func() {
				So(hub.Count(), ShouldEqual, 0)
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				_, _, err := conn.ReadMessage()
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a spectator stops reading", func() {
			conn := dial(srv.URL)
			defer conn.Close()
			readBoard(conn)

			for i := 0; i < 1000 && hub.Count() > 0; i++ {
				hub.Publish(ctx, service.Update{Board: types.Board{Clock: strings.Repeat("x", 64<<10)}})
			}

			Convey("Then it is dropped instead of blocking the publisher", func() {
				So(waitFor(func() bool { return hub.Count() == 0 }), ShouldBeTrue)
			})
		})
	})
}
