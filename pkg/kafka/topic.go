package kafka

import "fmt"

// TopicPrefix is prepended to every topic the platform owns.
const TopicPrefix = "yorumator"

// Topic builds a fully-qualified topic name such as "yorumator.review.created".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
