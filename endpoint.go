package epollserver

// endpoint 为监听 socket，由 Server 独占
type endpoint struct {
	fd   int
	name string
}
