// Package totp implements RFC 6238 time-based one-time passwords with
// HMAC-SHA1, 6 digits, and 30-second windows.
//
// In this system it supplies the second-factor proof required before a
// tenant partition may be destroyed: the operator's authenticator app and
// the server share a Base32 secret, and destruction only proceeds when the
// submitted code matches the current window (with one window of clock-drift
// tolerance either side).
package totp
