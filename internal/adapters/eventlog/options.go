package eventlog

// Option applies a configuration option to the Log.
type Option func(*Log)

// WithCapacity sets how many events are retained.
func WithCapacity(capacity int) Option {
	return func(l *Log) {
		if capacity > 0 {
			l.capacity = capacity
		}
	}
}

// WithSubscriberBuffer sets the channel buffer given to each subscriber.
func WithSubscriberBuffer(size int) Option {
	return func(l *Log) {
		if size > 0 {
			l.subBuffer = size
		}
	}
}
