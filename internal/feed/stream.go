package feed

import (
	"context"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// StartStream subscribes to live bars for symbol and delivers each close as
// a tick. Blocks until the context is cancelled.
func StartStream(ctx context.Context, apiKey, apiSecret, feed, symbol string, handler Handler, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "feed")

	client := stream.NewStocksClient(
		parseFeed(feed),
		stream.WithCredentials(apiKey, apiSecret),
	)

	// Connect must be called before subscribing in this SDK version.
	if err := client.Connect(ctx); err != nil {
		return errors.Wrap(err, "connect market data stream")
	}

	if err := client.SubscribeToBars(func(bar stream.Bar) {
		handler(Tick{Time: bar.Timestamp, Price: bar.Close})
	}, symbol); err != nil {
		return errors.Wrap(err, "subscribe to bars")
	}
	log.Infof("subscribed to bars for %s", symbol)

	<-ctx.Done()
	return ctx.Err()
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}
