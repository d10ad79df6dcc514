package state

import "maps"

// Reduce maps (state, action) to the next state. It never modifies s and
// never fails: an unknown kind, or a payload of the wrong type, returns s
// unchanged.
func Reduce(s State, a Action) State {
	switch a.Kind {
	case SetQuotes:
		if p, ok := a.Payload.(map[string]Quote); ok {
			s.Quotes = merge(s.Quotes, p)
		}
	case SetLatestPrices:
		if p, ok := a.Payload.(map[string]LatestPrice); ok {
			s.LatestPrices = merge(s.LatestPrices, p)
		}
	case SetDetails:
		if p, ok := a.Payload.(map[string]Detail); ok {
			s.Details = merge(s.Details, p)
		}
	case SetChart:
		if p, ok := a.Payload.(map[string]Series); ok {
			s.Charts = merge(s.Charts, keepCurrent(s.Charts, p, s.Period))
		}
	case SetPeriod:
		if p, ok := a.Payload.(Period); ok && p.IsValid() {
			s.Period = p
		}
	case AppendSignal:
		if p, ok := a.Payload.(Signal); ok {
			if s.Signals.Limit() == 0 {
				s.Signals = NewBounded[Signal](SignalLimit)
			}
			s.Signals = s.Signals.Prepend(p)
		}
	case AppendInsight:
		if p, ok := a.Payload.(Insight); ok {
			if s.Insights.Limit() == 0 {
				s.Insights = NewBounded[Insight](InsightLimit)
			}
			s.Insights = s.Insights.Prepend(p)
		}
	case UpdateStatus:
		if p, ok := a.Payload.(map[string]string); ok {
			s.Status = reduceStatus(s.Status, p, a)
		}
	case UpdatePreferences:
		if p, ok := a.Payload.(PreferencesPatch); ok {
			s.Preferences = reducePreferences(s.Preferences, p)
		}
	case SetVoiceTranscript:
		if p, ok := a.Payload.(string); ok {
			s.Voice.Transcript = p
		}
	case SetVoiceResponse:
		if p, ok := a.Payload.(string); ok {
			s.Voice.Response = p
		}
	case SetListening:
		if p, ok := a.Payload.(bool); ok {
			s.Voice.Listening = p
		}
	case AddSymbol:
		if p, ok := a.Payload.(string); ok && p != "" {
			wl := make(Watchlist, len(s.Watchlist), len(s.Watchlist)+1)
			copy(wl, s.Watchlist)
			s.Watchlist = append(wl, p)
		}
	case RemoveSymbol:
		if p, ok := a.Payload.(string); ok && s.Watchlist.Contains(p) {
			wl := make(Watchlist, 0, len(s.Watchlist))
			for _, sym := range s.Watchlist {
				if sym != p {
					wl = append(wl, sym)
				}
			}
			s.Watchlist = wl
		}
	}
	return s
}

// merge returns a new map holding dst overlaid with src.
func merge[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]V, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)
	return out
}

// keepCurrent drops incoming series that would replace one already valid for
// the selected period with one that is not.
func keepCurrent(have, in map[string]Series, period Period) map[string]Series {
	out := make(map[string]Series, len(in))
	for sym, ser := range in {
		if old, ok := have[sym]; ok && ser.Period != period && old.Period == period {
			continue
		}
		out[sym] = ser
	}
	return out
}

// reduceStatus merges sub-statuses and stamps LastUpdated with the action
// time, never moving it backwards.
func reduceStatus(st Status, patch map[string]string, a Action) Status {
	components := make(map[string]string, len(st.Components)+len(patch))
	maps.Copy(components, st.Components)
	maps.Copy(components, patch)

	last := st.LastUpdated
	if a.At.After(last) {
		last = a.At
	}
	return Status{Components: components, LastUpdated: last}
}

func reducePreferences(p Preferences, patch PreferencesPatch) Preferences {
	if patch.AutoRefresh != nil {
		p.AutoRefresh = *patch.AutoRefresh
	}
	if patch.Notifications != nil {
		p.Notifications = *patch.Notifications
	}
	if patch.Theme != nil {
		p.Theme = *patch.Theme
	}
	return p
}
