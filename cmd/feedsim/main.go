// feedsim is a synthetic producer for local runs: it dials the bridge's
// feed listener and plays the terminal's wire protocol (newline-delimited
// JSON) with random-walk prices.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"marketbridge/internal/infra"
)

type livePriceMsg struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
	Time   int64  `json:"time"`
}

type candleMsg struct {
	Type      string   `json:"type"`
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Candles   []candle `json:"candles"`
}

type candle struct {
	Open   string `json:"o"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Close  string `json:"c"`
	Volume int64  `json:"v"`
	Time   int64  `json:"t"`
}

type symbolListMsg struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

// walker is a decimal random-walk price model for one symbol.
type walker struct {
	symbol string
	price  decimal.Decimal
	step   decimal.Decimal
	spread decimal.Decimal
}

func newWalker(symbol string, base float64) *walker {
	price := decimal.NewFromFloat(base)
	return &walker{
		symbol: symbol,
		price:  price,
		step:   price.Mul(decimal.NewFromFloat(0.0005)), // 5 bps per tick
		spread: price.Mul(decimal.NewFromFloat(0.0001)),
	}
}

func (w *walker) tick() (bid, ask decimal.Decimal) {
	delta := w.step.Mul(decimal.NewFromFloat(rand.Float64()*2 - 1))
	w.price = w.price.Add(delta)
	if w.price.IsNegative() {
		w.price = w.price.Abs()
	}
	return w.price.Sub(w.spread), w.price.Add(w.spread)
}

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:5555", "Bridge feed address")
		interval = flag.Int("interval", 250, "Milliseconds between price ticks")
		symbols  = flag.String("symbols", "EURUSD,GBPUSD,USDJPY", "Comma-separated symbol list")
		helpFlag = flag.Bool("help", false, "Show help message")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  feedsim [--addr host:port] [--interval ms] [--symbols A,B,C]\n")
		fmt.Fprintf(os.Stderr, "  feedsim --help\n")
	}
	flag.Parse()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	list := strings.Split(*symbols, ",")
	walkers := make([]*walker, 0, len(list))
	for i, s := range list {
		walkers = append(walkers, newWalker(strings.TrimSpace(s), 1.0+float64(i)*0.2))
	}

	slog.Info("feedsim started", slog.String("addr", *addr), slog.Int("symbols", len(walkers)))

	retry := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("feedsim stopped")
			return
		default:
		}

		conn, err := net.DialTimeout("tcp", *addr, 10*time.Second)
		if err != nil {
			delay := infra.CalculateBackoff(retry)
			retry++
			slog.Warn("dial failed, retrying", slog.Any("error", err), slog.Duration("in", delay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		retry = 0

		if err := produce(ctx, conn, walkers, time.Duration(*interval)*time.Millisecond); err != nil {
			slog.Warn("connection lost", slog.Any("error", err))
		}
		conn.Close()
	}
}

// produce writes the protocol until the connection or context dies.
func produce(ctx context.Context, conn net.Conn, walkers []*walker, interval time.Duration) error {
	symbols := make([]string, len(walkers))
	for i, w := range walkers {
		symbols[i] = w.symbol
	}
	if err := writeMsg(conn, symbolListMsg{Type: "symbol_list", Symbols: symbols}); err != nil {
		return err
	}
	for _, w := range walkers {
		if err := writeCandles(conn, w); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	candleEvery := 40 // ticks between candle batch refreshes
	n := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w := walkers[n%len(walkers)]
			bid, ask := w.tick()
			msg := livePriceMsg{
				Type:   "live_price",
				Symbol: w.symbol,
				Bid:    bid.StringFixed(5),
				Ask:    ask.StringFixed(5),
				Time:   time.Now().UnixMilli(),
			}
			if err := writeMsg(conn, msg); err != nil {
				return err
			}
			n++
			if n%candleEvery == 0 {
				if err := writeCandles(conn, walkers[rand.Intn(len(walkers))]); err != nil {
					return err
				}
			}
		}
	}
}

func writeCandles(conn net.Conn, w *walker) error {
	now := time.Now().Truncate(time.Minute)
	candles := make([]candle, 0, 20)
	price := w.price
	for i := 19; i >= 0; i-- {
		open := price
		high := open.Mul(decimal.NewFromFloat(1.0004))
		low := open.Mul(decimal.NewFromFloat(0.9996))
		cl := open.Add(w.step.Mul(decimal.NewFromFloat(rand.Float64()*2 - 1)))
		candles = append(candles, candle{
			Open:   open.StringFixed(5),
			High:   high.StringFixed(5),
			Low:    low.StringFixed(5),
			Close:  cl.StringFixed(5),
			Volume: rand.Int63n(1000),
			Time:   now.Add(-time.Duration(i) * time.Minute).UnixMilli(),
		})
		price = cl
	}
	return writeMsg(conn, candleMsg{Type: "ohlcv", Symbol: w.symbol, Timeframe: "M1", Candles: candles})
}

func writeMsg(conn net.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err = conn.Write(b)
	return err
}
