package state

import "time"

// Kind names a transition.
type Kind string

const (
	SetQuotes          Kind = "set-quotes"
	SetLatestPrices    Kind = "set-latest-prices"
	SetDetails         Kind = "set-details"
	SetChart           Kind = "set-chart"
	SetPeriod          Kind = "set-period"
	AppendSignal       Kind = "append-signal"
	AppendInsight      Kind = "append-insight"
	UpdateStatus       Kind = "update-status"
	UpdatePreferences  Kind = "update-preferences"
	SetVoiceTranscript Kind = "set-voice-transcript"
	SetVoiceResponse   Kind = "set-voice-response"
	SetListening       Kind = "set-listening"
	AddSymbol          Kind = "add-symbol"
	RemoveSymbol       Kind = "remove-symbol"
)

// Action is a transition request. Payload types per kind:
//
//	set-quotes           map[string]Quote
//	set-latest-prices    map[string]LatestPrice
//	set-details          map[string]Detail
//	set-chart            map[string]Series
//	set-period           Period
//	append-signal        Signal
//	append-insight       Insight
//	update-status        map[string]string
//	update-preferences   PreferencesPatch
//	set-voice-*          string
//	set-listening        bool
//	add/remove-symbol    string
//
// At is the time the action was dispatched; the Store fills it when zero.
type Action struct {
	Kind    Kind
	Payload any
	At      time.Time
}
