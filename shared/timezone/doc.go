// Package timezone centralizes time handling for the application. All
// wall-clock reads and date formatting go through this package so the
// configured hotel timezone is applied consistently.
package timezone
