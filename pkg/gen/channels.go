package gen

// DrainChannelIntoSlice reads from a channel until it is empty, and returns
// whatever was read. It never blocks: if the channel is empty, you get an
// empty slice.
func DrainChannelIntoSlice[T any](ch chan T) []T {
	slice := make([]T, 0, len(ch)) // optimize for the common case where we're the only reader
	for {
		select {
		case v := <-ch:
			slice = append(slice, v)
		default:
			return slice
		}
	}
}
