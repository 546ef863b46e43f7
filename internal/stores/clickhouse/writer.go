package clickhouse

import (
	"context"
	"errors"
	"sync"
	"time"

	"chainmetrics/internal/config"
	"chainmetrics/internal/domain"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"gitlab.com/nevasik7/alerting"
)

// EventRow is the append-only archive row for one processed event. Decimal
// columns travel as strings (Decimal(38,18) / Decimal(20,6) server side).
type EventRow struct {
	EventTime     time.Time
	Network       string
	Kind          string
	TxHash        string
	LogIndex      uint32
	EventID       string
	Market        string
	FromAddr      string
	ToAddr        string
	TokenID       string
	Amount        string
	PriceETH      string
	AmountUSD     string
	Strategy      string
	BlockNumber   uint64
	SchemaVersion uint16
}

// RowFromRecord flattens an event record into its archive row.
func RowFromRecord(network string, rec *domain.EventRecord) EventRow {
	row := EventRow{
		EventTime:     time.Unix(rec.Timestamp, 0).UTC(),
		Network:       network,
		Kind:          string(rec.Kind),
		TxHash:        rec.TxHash,
		LogIndex:      rec.LogIndex,
		EventID:       rec.ID,
		Market:        rec.Market,
		FromAddr:      rec.From,
		ToAddr:        rec.To,
		PriceETH:      rec.PriceETH.String(),
		AmountUSD:     rec.AmountUSD.String(),
		Strategy:      string(rec.Strategy),
		BlockNumber:   rec.BlockNumber,
		SchemaVersion: 1,
	}
	if rec.TokenID != nil {
		row.TokenID = rec.TokenID.String()
	}
	if rec.Amount != nil {
		row.Amount = rec.Amount.String()
	}
	return row
}

type Writer struct {
	alert alerting.Alerting

	conn ch.Conn
	cfg  config.ClickHouseConfig

	inCh      chan EventRow
	closedCh  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWriter(alert alerting.Alerting, conn ch.Conn, cfg config.ClickHouseConfig) *Writer {
	// sane defaults
	if cfg.Writer.BatchMaxRows <= 0 {
		cfg.Writer.BatchMaxRows = 1000
	}
	if cfg.Writer.BatchMaxInterval <= 0 {
		cfg.Writer.BatchMaxInterval = 200 * time.Millisecond
	}
	if cfg.Writer.MaxRetries < 0 {
		cfg.Writer.MaxRetries = 0
	}
	if cfg.Writer.RetryBackoff <= 0 {
		cfg.Writer.RetryBackoff = 200 * time.Millisecond
	}

	w := &Writer{
		alert:    alert,
		conn:     conn,
		cfg:      cfg,
		inCh:     make(chan EventRow, 8192),
		closedCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w
}

func (w *Writer) Enqueue(row EventRow) error {
	select {
	case <-w.closedCh:
		return errors.New("clickhouse writer closed")
	default:
	}

	select {
	case w.inCh <- row:
		return nil
	case <-w.closedCh:
		return errors.New("clickhouse writer closed")
	}
}

func (w *Writer) Health(ctx context.Context) error {
	return w.conn.Ping(ctx)
}

func (w *Writer) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		close(w.closedCh)
		close(w.inCh)
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) loop() {
	defer w.wg.Done()

	batch := make([]EventRow, 0, w.cfg.Writer.BatchMaxRows)
	ticker := time.NewTicker(w.cfg.Writer.BatchMaxInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		if err := w.insertBatch(context.Background(), batch); err != nil {
			w.alert.ErrorfLogAndAlert("Failed insert [%d] rows by batch to clickhouse, error=%v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case row, ok := <-w.inCh:
			if !ok {
				flush()
				return
			}

			batch = append(batch, row)
			if len(batch) >= w.cfg.Writer.BatchMaxRows {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (w *Writer) insertBatch(ctx context.Context, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}

	backoff := w.cfg.Writer.RetryBackoff

	var lastErr error

	for attempt := 0; attempt <= w.cfg.Writer.MaxRetries; attempt++ {
		batch, err := w.conn.PrepareBatch(ctx, `
			INSERT INTO event_records (
				event_time,
				network,
				kind,
				tx_hash,
				log_index,
				event_id,
				market,
				from_addr,
				to_addr,
				token_id,
				amount,
				price_eth,
				amount_usd,
				strategy,
				block_number,
				schema_version
			)
		`)
		if err != nil {
			lastErr = err
			goto retry
		}

		for i := range rows {
			r := &rows[i]
			if err = batch.Append(
				r.EventTime,
				r.Network,
				r.Kind,
				r.TxHash,
				r.LogIndex,
				r.EventID,
				r.Market,
				r.FromAddr,
				r.ToAddr,
				r.TokenID,
				r.Amount,
				r.PriceETH,
				r.AmountUSD,
				r.Strategy,
				r.BlockNumber,
				r.SchemaVersion,
			); err != nil {
				lastErr = err
				_ = batch.Abort()
				goto retry
			}
		}

		if err = batch.Send(); err != nil {
			lastErr = err
			goto retry
		}
		return nil

	retry:
		if attempt == w.cfg.Writer.MaxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	return lastErr
}
