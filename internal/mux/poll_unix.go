//go:build unix

package mux

import "golang.org/x/sys/unix"

// selectPoller implements Poller with select(2): a pure readiness wait, no
// timeout, spanning every still-open descriptor.
type selectPoller struct{}

// NewSelectPoller returns the production Poller.
func NewSelectPoller() Poller {
	return selectPoller{}
}

func (selectPoller) Wait(fds []int) ([]int, error) {
	for {
		var set unix.FdSet

		nfds := 0

		for _, fd := range fds {
			set.Set(fd)

			if fd >= nfds {
				nfds = fd + 1
			}
		}

		if _, err := unix.Select(nfds, &set, nil, nil, nil); err != nil {
			if err == unix.EINTR {
				continue
			}

			return nil, err
		}

		ready := make([]int, 0, len(fds))

		for _, fd := range fds {
			if set.IsSet(fd) {
				ready = append(ready, fd)
			}
		}

		return ready, nil
	}
}
