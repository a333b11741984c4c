// Package delay implements the fixed-capacity frame buffer that turns a live
// feed into a time-shifted one.
//
// A Buffer is a circular array addressed by head and length indices. Push is
// O(1) and never allocates; once the buffer is full every push evicts the
// oldest frame and hands it to the release function.
//
// The buffer has two states. While Filling, Candidate returns the frame that
// was just pushed so the display never sits idle. Once Steady, Candidate
// returns the delayed frame. The transition happens once and never reverts.
//
//	b := delay.New[video.Frame](90)
//	defer b.Close()
//
//	b.Push(frame)
//	candidate, _ := b.Candidate()
package delay
