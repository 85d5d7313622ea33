package config

import "time"

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// NATSURL and RedisURL are optional; leaving either empty runs the
	// relay without the cross-instance bridge or the presence mirror.
	NATSURL  string `mapstructure:"nats_url"`
	RedisURL string `mapstructure:"redis_url"`

	// RoomCapacity is the member ceiling considered by random-join
	// placement. Joining by code is not capped.
	RoomCapacity int `mapstructure:"room_capacity"`

	// ReapGrace is how long an emptied room survives before deletion.
	ReapGrace time.Duration `mapstructure:"reap_grace"`
}
