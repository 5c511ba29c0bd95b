// Package ui turns command lifecycle events into console log lines so that
// users running pushguard with the console log format can follow each probe.
package ui
