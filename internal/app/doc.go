// Package app wires stores and services into one caller-owned dependency
// graph. There is deliberately no process-wide singleton: construct a Wire,
// pass it around, close it when done.
package app
