// Package shell connects the circulation features to the library database and to observability.
//
// It defines the contracts every feature slice implements (Command, Query and their core handlers),
// the HandlerResult returned by commands, and the metric, log and span vocabulary shared by the
// observable wrappers.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
