package config

import "errors"

var (
	ErrReadingConfigFile       = errors.New("failed to read config file")
	ErrUnmarshallingConfig     = errors.New("failed to unmarshal config")
	ErrInvalidSampleCount      = errors.New("stream count must be a positive integer")
	ErrInvalidSpikeProbability = errors.New("stream spikeProbability must be within [0, 1]")
	ErrInvalidWindowSize       = errors.New("detector windowSize must be a positive integer")
	ErrInvalidThreshold        = errors.New("detector threshold must be a positive number")
	ErrInvalidTick             = errors.New("pipeline tick must not be negative")
	ErrInvalidChannelBuffer    = errors.New("pipeline channelBuffer must be positive")
)
