// Package fuzztests houses Go fuzz harnesses that exercise the patch
// pipeline (HCL text -> patch -> compiler -> program). Its goal is to smoke
// test robustness and guard against panics or hangs on arbitrary inputs.
//
// Назначение: прогонять произвольные байты через patchfile.ParseHCL и, если
// разбор удался, через compiler.Compile и несколько кадров программы.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/patchfile, internal/compiler, internal/testkit.

package fuzztests
