// Package billing prices generated content and charges for it once the
// result exists.
package billing

// Coin prices.
const (
	PriceMessage    int64 = 1
	PriceImage      int64 = 10
	PriceVoice      int64 = 5
	PriceVideoShort int64 = 20
	PriceVideoLong  int64 = 50

	// Clips up to this many seconds are billed at PriceVideoShort.
	VideoShortMaxSeconds = 5
)

// VideoCost returns the price of a clip of the given length.
func VideoCost(seconds int) int64 {
	if seconds <= VideoShortMaxSeconds {
		return PriceVideoShort
	}
	return PriceVideoLong
}
