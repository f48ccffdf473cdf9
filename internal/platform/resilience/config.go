package resilience

import "time"

// RetryPolicy is a blind retry: the operation runs up to Attempts times with a
// fixed Delay between attempts, regardless of the error.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy is one retry after five minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 2,
		Delay:    5 * time.Minute,
	}
}

// RetryPolicyFromRetries builds a policy from a retry count, which excludes the
// first attempt.
func RetryPolicyFromRetries(retries int, delay time.Duration) RetryPolicy {
	if retries < 0 {
		retries = 0
	}
	return NormalizeRetryPolicy(RetryPolicy{Attempts: retries + 1, Delay: delay})
}

// Retries is the number of attempts after the first.
func (p RetryPolicy) Retries() int {
	if p.Attempts < 1 {
		return 0
	}
	return p.Attempts - 1
}

func NormalizeRetryPolicy(policy RetryPolicy) RetryPolicy {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	return policy
}
