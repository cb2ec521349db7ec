package gacha

// Observer receives pull events. Implementations must not call back into the engine.
type Observer interface {
	ObservePull(banner, rarity string, trigger Trigger)
	ObserveFallback(banner, requested, substituted string)
	ObserveExhausted(banner string)
}

type nopObserver struct{}

func (nopObserver) ObservePull(string, string, Trigger) {}
func (nopObserver) ObserveFallback(string, string, string) {}
func (nopObserver) ObserveExhausted(string) {}
