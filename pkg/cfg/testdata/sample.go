package sample

import "context"

type Server struct {
	tick chan struct{}
}

func straight(x int) int {
	y := x + 1
	return y
}

func ifElse(x int) int {
	if x > 0 {
		x++
	} else {
		x--
	}
	return x
}

func earlyReturn(x int) int {
	if x < 0 {
		return -1
	}
	return x
}

func loop(n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			continue
		}
		sum += i
	}
	return sum
}

func classify(x int) string {
	switch {
	case x < 0:
		return "neg"
	case x == 0:
		fallthrough
	case x == 1:
		return "small"
	}
	return "big"
}

func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.tick:
		}
	}
}

func find(grid [][]int, target int) bool {
	found := false
outer:
	for _, row := range grid {
		for _, v := range row {
			if v == target {
				found = true
				break outer
			}
		}
	}
	return found
}

func retry(n int) int {
again:
	n--
	if n > 0 {
		goto again
	}
	return n
}

func mustPositive(x int) int {
	if x <= 0 {
		panic("not positive")
	}
	return x
}
