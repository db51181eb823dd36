package wire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode_MarketData(t *testing.T) {
	data := `{"type":"market_data","symbol":"AAPL","data":{"timestamp":1705321845000,"open":150.25,"high":151.0,"low":149.8,"close":150.9,"volume":125000}}`

	frame, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	md, ok := frame.(MarketData)
	if !ok {
		t.Fatalf("frame type = %T, want MarketData", frame)
	}
	if md.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want %q", md.Symbol, "AAPL")
	}
	if md.Data.Timestamp != 1705321845000 {
		t.Errorf("Timestamp = %d, want 1705321845000", md.Data.Timestamp)
	}
	if md.Data.High != 151.0 {
		t.Errorf("High = %v, want 151.0", md.Data.High)
	}
	if md.Data.Volume != 125000 {
		t.Errorf("Volume = %v, want 125000", md.Data.Volume)
	}
}

func TestDecode_Indicators(t *testing.T) {
	data := `{"type":"indicators","symbol":"TSLA","indicators":{"RSI":{"timestamp":1705321845000,"value":62.5},"MACD_CROSS":{"timestamp":1705321845000,"value":null}}}`

	frame, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	ind, ok := frame.(Indicators)
	if !ok {
		t.Fatalf("frame type = %T, want Indicators", frame)
	}
	if ind.Symbol != "TSLA" {
		t.Errorf("Symbol = %q, want %q", ind.Symbol, "TSLA")
	}
	if len(ind.Indicators) != 2 {
		t.Fatalf("len(Indicators) = %d, want 2", len(ind.Indicators))
	}

	rsi := ind.Indicators["RSI"]
	if rsi.Value == nil || *rsi.Value != 62.5 {
		t.Errorf("RSI value = %v, want 62.5", rsi.Value)
	}

	cross := ind.Indicators["MACD_CROSS"]
	if cross.Value != nil {
		t.Errorf("MACD_CROSS value = %v, want nil (sparse)", *cross.Value)
	}
}

func TestDecode_Signals(t *testing.T) {
	data := `{"type":"signals","symbol":"NVDA","signals":[{"id":"sig-1","symbol":"NVDA","timestamp":1705321845000,"signal_type":"BUY","confidence":0.82,"price_target":540.0,"current_price":512.3,"reasoning":["momentum breakout","volume surge"],"strength":"strong"}]}`

	frame, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	sg, ok := frame.(Signals)
	if !ok {
		t.Fatalf("frame type = %T, want Signals", frame)
	}
	if len(sg.Signals) != 1 {
		t.Fatalf("len(Signals) = %d, want 1", len(sg.Signals))
	}

	s := sg.Signals[0]
	if s.SignalType != "BUY" {
		t.Errorf("SignalType = %q, want %q", s.SignalType, "BUY")
	}
	if s.Confidence != 0.82 {
		t.Errorf("Confidence = %v, want 0.82", s.Confidence)
	}
	if len(s.Reasoning) != 2 {
		t.Errorf("len(Reasoning) = %d, want 2", len(s.Reasoning))
	}
}

func TestDecode_ErrorFrame(t *testing.T) {
	data := `{"type":"error","error":"symbol not found: ZZZZ"}`

	frame, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	ef, ok := frame.(ErrorFrame)
	if !ok {
		t.Fatalf("frame type = %T, want ErrorFrame", frame)
	}
	if ef.Error != "symbol not found: ZZZZ" {
		t.Errorf("Error = %q, want %q", ef.Error, "symbol not found: ZZZZ")
	}
}

func TestDecode_ConnectionEstablished(t *testing.T) {
	data := `{"type":"connection_established","message":"welcome","timestamp":1705321845000}`

	frame, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if _, ok := frame.(ConnectionEstablished); !ok {
		t.Fatalf("frame type = %T, want ConnectionEstablished", frame)
	}
}

func TestDecode_UnknownType(t *testing.T) {
	data := `{"type":"heartbeat","ts":123}`

	_, err := Decode([]byte(data))
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Decode error = %v, want ErrUnknownType", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `this is not json`},
		{"empty", ``},
		{"truncated", `{"type":"market_data","symbol":"AAPL","data":{`},
		{"wrong payload type", `{"type":"market_data","symbol":"AAPL","data":"oops"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Error("Decode succeeded, want error")
			}
		})
	}
}

func TestOutbound_TypeTags(t *testing.T) {
	tests := []struct {
		name  string
		frame any
		want  string
	}{
		{"subscribe", NewSubscribe([]string{"AAPL"}, "1m"), `{"type":"subscribe","symbols":["AAPL"],"timeframe":"1m"}`},
		{"unsubscribe", NewUnsubscribe([]string{"AAPL"}), `{"type":"unsubscribe","symbols":["AAPL"]}`},
		{"get_indicators", NewGetIndicators("TSLA"), `{"type":"get_indicators","symbol":"TSLA"}`},
		{"get_signals", NewGetSignals("NVDA"), `{"type":"get_signals","symbol":"NVDA"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.frame)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("marshal = %s, want %s", data, tt.want)
			}
		})
	}
}
