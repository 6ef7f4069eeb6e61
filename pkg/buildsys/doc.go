// Package buildsys implements the task runner behind `docker-captain task`. Tasks are declared
// in a Starlark file (tasks.star) and their commands are executed by the mvdan.cc/sh interpreter
// so that the same task file works on every platform.
//
// A task is an ordered list of commands. Commands run one after another with `set -e`
// semantics and the first failure aborts the task together with everything that depends on it.
package buildsys
