// Package events defines the inbound event contract consumed by the
// orchestrator.
//
// Every event is addressed to a room and carries its kind and receive time.
//
//   - SpeechEvent (user_input.speech): recorded audio that has to be
//     transcribed before a reply can be generated.
//   - TextEvent (user_input.text): typed text, passed to generation verbatim.
package events
