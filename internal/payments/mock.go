package payments

import (
	"fmt"
	"net/url"
)

// mockCheckout builds the deterministic dev/demo session used when a
// gateway's credentials are not configured. The URL round-trips straight to
// the order-success page so the flow works end to end without live keys.
func mockCheckout(provider string, req CheckoutRequest) *CheckoutSession {
	ref := fmt.Sprintf("mock_%s_%s", provider, req.OrderCode)

	u, err := url.Parse(req.CallbackURL)
	if err != nil || req.CallbackURL == "" {
		return &CheckoutSession{
			CheckoutURL: fmt.Sprintf("/order-success?code=%s&reference=%s", req.OrderCode, ref),
			ProviderRef: ref,
		}
	}
	q := u.Query()
	q.Set("reference", ref)
	q.Set("mock", "1")
	u.RawQuery = q.Encode()

	return &CheckoutSession{CheckoutURL: u.String(), ProviderRef: ref}
}
