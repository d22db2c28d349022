package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"rate-engine/calculator"
	"rate-engine/rate"
)

// inputRate 一行 JSON 报价，bid/ask 可以是数字也可以是字符串
type inputRate struct {
	Type      string               `json:"type"`
	Provider  string               `json:"provider"`
	Bid       calculator.RateValue `json:"bid"`
	Ask       calculator.RateValue `json:"ask"`
	Timestamp *time.Time           `json:"timestamp"`
}

func parseLine(line []byte, now func() time.Time) (rate.RawRate, error) {
	var in inputRate
	if err := json.Unmarshal(line, &in); err != nil {
		return rate.RawRate{}, fmt.Errorf("decode rate: %w", err)
	}
	bid, err := in.Bid.Float64()
	if err != nil {
		return rate.RawRate{}, fmt.Errorf("bid: %w", err)
	}
	ask, err := in.Ask.Float64()
	if err != nil {
		return rate.RawRate{}, fmt.Errorf("ask: %w", err)
	}
	r := rate.RawRate{
		Type:     strings.ToUpper(strings.TrimSpace(in.Type)),
		Provider: strings.TrimSpace(in.Provider),
		Bid:      bid,
		Ask:      ask,
	}
	if in.Timestamp != nil {
		r.Timestamp = *in.Timestamp
	} else {
		r.Timestamp = now()
	}
	return r, r.Validate()
}

// readRates 逐行读取报价；坏行交给 onError，不中断后续处理
func readRates(ctx context.Context, src io.Reader, now func() time.Time, handle func(rate.RawRate) error, onError func(line int, err error)) error {
	scanner := bufio.NewScanner(src)
	n := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 || line[0] == '#' {
			continue
		}
		r, err := parseLine(line, now)
		if err == nil {
			err = handle(r)
		}
		if err != nil && onError != nil {
			onError(n, err)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
