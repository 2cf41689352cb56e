//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// TimerState is the lifecycle state of a countdown timer
// ENUM(running,completed,failed)
type TimerState string
