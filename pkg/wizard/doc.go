// Package wizard drives multi-step forms whose progress lives in the user's
// session.
//
// A State records the current Step, the cleaned data of every step that
// validated and a small string map for values shared between steps (the id of
// the device being enrolled, for example). Storage reads and writes that
// state under a stable key of a session-like Bag. Machine holds the
// transition table: each step advances to the next one once its guards pass
// and its actions ran. Handlers implementing StepHandler render and validate
// individual steps.
package wizard
