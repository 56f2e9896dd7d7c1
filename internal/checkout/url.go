package checkout

import (
	"net/url"
	"strconv"
	"strings"
)

// URL builds the hosted checkout link for a pending checkout. The workshop id
// and token travel as custom data and come back in the paid webhook.
func URL(baseURL, variant, email string, workshopID uint, token string) string {
	q := url.Values{}
	if email != "" {
		q.Set("checkout[email]", email)
	}
	q.Set("checkout[custom][tenant_id]", strconv.FormatUint(uint64(workshopID), 10))
	q.Set("checkout[custom][token]", token)

	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(variant) + "?" + q.Encode()
}
