package rtree

import "math"

// multiSelect partially orders items[left:right+1] so that every run of n
// elements is bounded by the runs around it, without fully sorting.
func multiSelect[T comparable](items []*node[T], left, right, n int, compare func(a, b *node[T]) int) {
	stack := []int{left, right}
	for len(stack) > 0 {
		right = stack[len(stack)-1]
		left = stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		if right-left <= n {
			continue
		}
		mid := left + int(math.Ceil(float64(right-left)/float64(n)/2))*n
		quickselect(items, mid, left, right, compare)
		stack = append(stack, left, mid, mid, right)
	}
}

// quickselect rearranges arr[left:right+1] so that arr[k] is the element
// that would be there if sorted, with smaller elements before it and larger
// after (Floyd-Rivest selection).
func quickselect[T comparable](arr []*node[T], k, left, right int, compare func(a, b *node[T]) int) {
	for right > left {
		if right-left > 600 {
			n := float64(right - left + 1)
			m := float64(k - left + 1)
			z := math.Log(n)
			s := 0.5 * math.Exp(2*z/3)
			sd := 0.5 * math.Sqrt(z*s*(n-s)/n)
			if m-n/2 < 0 {
				sd = -sd
			}
			newLeft := max(left, int(math.Floor(float64(k)-m*s/n+sd)))
			newRight := min(right, int(math.Floor(float64(k)+(n-m)*s/n+sd)))
			quickselect(arr, k, newLeft, newRight, compare)
		}

		pivot := arr[k]
		i, j := left, right

		arr[left], arr[k] = arr[k], arr[left]
		if compare(arr[right], pivot) > 0 {
			arr[left], arr[right] = arr[right], arr[left]
		}

		for i < j {
			arr[i], arr[j] = arr[j], arr[i]
			i++
			j--
			for compare(arr[i], pivot) < 0 {
				i++
			}
			for compare(arr[j], pivot) > 0 {
				j--
			}
		}

		if compare(arr[left], pivot) == 0 {
			arr[left], arr[j] = arr[j], arr[left]
		} else {
			j++
			arr[j], arr[right] = arr[right], arr[j]
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}
