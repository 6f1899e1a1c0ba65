// admission.go: frequency-aware admission coordinator
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

// admissionPolicy decides whether a candidate leaving the hot segment may
// displace the cold segment's next victim. Consulted only by maintenance.
type admissionPolicy interface {
	// recordAccess feeds an access into the policy's frequency state.
	recordAccess(keyHash uint64)
	// admit reports whether candidate should displace victim.
	admit(candidateHash, victimHash uint64) bool
	// clear discards all frequency state.
	clear()
}

// alwaysAdmit is the policy used when frequency-aware admission is off:
// every candidate displaces the victim, giving plain segmented-LRU behavior.
type alwaysAdmit struct{}

func (alwaysAdmit) recordAccess(uint64)    {}
func (alwaysAdmit) admit(_, _ uint64) bool { return true }
func (alwaysAdmit) clear()                 {}

// tinyLFU admits a candidate only when the sketch estimates it to be
// strictly more popular than the victim; ties favour the incumbent, which
// resists one-hit scans flushing the cold segment.
type tinyLFU struct {
	sketch *frequencySketch
}

func newTinyLFU(capacity int) *tinyLFU {
	return &tinyLFU{sketch: newFrequencySketch(capacity)}
}

func (t *tinyLFU) recordAccess(keyHash uint64) {
	t.sketch.Increment(keyHash)
}

func (t *tinyLFU) admit(candidateHash, victimHash uint64) bool {
	return t.sketch.EstimateFrequency(candidateHash) > t.sketch.EstimateFrequency(victimHash)
}

func (t *tinyLFU) clear() {
	t.sketch.Clear()
}
