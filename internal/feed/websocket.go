package feed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeWait = 10 * time.Second

// ServeOptions configures one WebSocket stream.
type ServeOptions struct {
	// Initial is written before any live message.
	Initial        *Message
	OriginPatterns []string
	Logger         zerolog.Logger
}

// Serve upgrades the request and streams sub until the client disconnects
// or the subscription is dropped. The subscription is always released.
func Serve(w http.ResponseWriter, r *http.Request, sub *Subscription, opts ServeOptions) {
	defer sub.Release()
	log := opts.Logger.With().Str("milestone_id", sub.MilestoneID).Logger()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
	if err != nil {
		log.Warn().Err(err).Msg("feed: websocket accept failed")
		return
	}
	defer conn.CloseNow()

	// Clients never send data; CloseRead handles pings and close frames.
	ctx := conn.CloseRead(r.Context())

	if opts.Initial != nil {
		if err := write(ctx, conn, *opts.Initial); err != nil {
			log.Debug().Err(err).Msg("feed: initial write failed")
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				if err := sub.Err(); err != nil {
					log.Warn().Err(err).Msg("feed: subscription dropped")
					_ = write(ctx, conn, Message{MilestoneID: sub.MilestoneID, Stale: true, At: time.Now().UTC()})
					conn.Close(websocket.StatusTryAgainLater, "subscription dropped")
					return
				}
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := write(ctx, conn, msg); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Debug().Err(err).Msg("feed: write failed")
				}
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
