package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Input layouts accepted for birth date and clock time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ChartRequest is a birth moment and place as supplied by a caller.
type ChartRequest struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	City        string `json:"city"`
	HouseSystem string `json:"house_system,omitempty"`
}

// Validate checks that required fields are present and well formed. It does
// not resolve the place.
func (r ChartRequest) Validate() error {
	if strings.TrimSpace(r.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidInput)
	}
	if _, err := ParseLocalTime(r.Date, r.Time, time.UTC); err != nil {
		return err
	}
	if r.HouseSystem != "" {
		if _, err := ParseHouseSystem(r.HouseSystem); err != nil {
			return err
		}
	}
	return nil
}

// ParseLocalTime reads date ("2006-01-02") and clock time ("15:04") as wall
// time in loc.
func ParseLocalTime(date, clockTime string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout,
		strings.TrimSpace(date)+" "+strings.TrimSpace(clockTime), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q time %q: %w", ErrInvalidInput, date, clockTime, err)
	}
	return t, nil
}

// ChartResult is the payload returned to callers: the chart plus its
// element tally.
type ChartResult struct {
	Chart    Chart        `json:"chart"`
	Elements ElementTally `json:"elements"`
}

// RawEvent is an unprocessed chart request message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is a serialized chart result destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseChartRequest decodes a source message. The message key is used as the
// request ID when the payload carries none.
func ParseChartRequest(raw RawEvent) (ChartRequest, error) {
	var req ChartRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ChartRequest{}, fmt.Errorf("%w: parse chart request: %w", ErrInvalidInput, err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if err := req.Validate(); err != nil {
		return ChartRequest{}, err
	}
	return req, nil
}
