// Package detect runs a face detector beside playback.
//
// The Dispatcher receives a copy of every delivered NV21 frame, keeps only
// the newest one, shrinks it to a bounded width and hands it to a Detector
// on its own goroutine. Playback never waits for detection.
package detect
