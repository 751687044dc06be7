// Package fuzztests houses Go fuzz harnesses for the generator pipeline
// (source -> extract -> synth -> render). They guard against panics and hangs
// on arbitrary input and check that whatever the extractor accepts renders to
// gofmt-clean code.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
