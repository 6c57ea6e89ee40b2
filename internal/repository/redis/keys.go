package redisrepo

import "fmt"

const ns = "coachseat:v1"

func KeyChart() string {
	return ns + ":chart"
}

func KeyChartCounts() string {
	return ns + ":chart:counts"
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemBooking(idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%s", ns, idemKey)
}

func ChannelChartChanged() string {
	return ns + ":chart:changed"
}
