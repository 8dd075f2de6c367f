// Package scriptinterp is a minimal scripted Interpreter used only by the
// root package's external tests (the wmc_test package). It exists so those
// tests can drive a Driver/Engine over tiny, fixed programs — the worked
// examples of spec.md §8 — without pulling in a real language front end.
//
// A Program is a fixed slice of per-thread instruction lists. Thread 0 (the
// main thread) runs from the start; any other thread only begins once an
// OpThreadCreate instruction names it. Each thread keeps one scalar
// register (the value of its most recent load, join or spawn) and the list
// of every value it has loaded so far, which OpAssert consults.
//
// Grounded on the teacher's dispatcher_test.go fixture style (a tiny
// hand-rolled program driving a real component end to end, instead of
// mocking it) rather than on any part of original_source/, since the
// scripted language itself has no source-language analogue to translate.
package scriptinterp
