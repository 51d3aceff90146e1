package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
)

// The portal acknowledges mutations inconsistently: sometimes {msg},
// sometimes {success, msg}, sometimes an empty body. These are the two
// message strings with characterized meanings; anything else is an
// unrecognized refusal and surfaces verbatim.
const (
	msgPlanUpdated      = "Plan updated successfully!"
	msgCFSUpgradeFailed = "CFS plan upgrade failed. Please contact support."
)

type ackPayload struct {
	Success *bool  `json:"success"`
	Msg     string `json:"msg"`
}

// classifyAck maps a raw mutation response to an outcome in one place rather
// than scattering string comparisons through the call sites.
//
// Rules, in order:
//   - an explicit success flag wins;
//   - on a non-error status, an empty body means the portal silently
//     no-opped (NO_CHANGE) and the known success message means SUCCESS;
//   - exactly HTTP 400 with the known CFS failure message is a soft success
//     when the caller opted in: the portal rejects some valid changes with
//     this message;
//   - everything else is a rejection carrying the upstream message.
func classifyAck(status int, body []byte, allowSoftSuccess bool) (domain.UpdateOutcome, error) {
	trimmed := bytes.TrimSpace(body)

	var ack ackPayload
	if len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &ack); err != nil {
			ack.Msg = string(trimmed)
		}
	}

	if ack.Success != nil {
		if *ack.Success {
			return domain.UpdateOutcome{Result: domain.UpdateSuccess, Message: ack.Msg}, nil
		}
		return domain.UpdateOutcome{}, rejected(status, ack.Msg)
	}

	if status >= http.StatusOK && status < http.StatusBadRequest {
		switch ack.Msg {
		case "":
			return domain.UpdateOutcome{Result: domain.UpdateNoChange}, nil
		case msgPlanUpdated:
			return domain.UpdateOutcome{Result: domain.UpdateSuccess, Message: ack.Msg}, nil
		default:
			return domain.UpdateOutcome{}, rejected(status, ack.Msg)
		}
	}

	if status == http.StatusBadRequest && allowSoftSuccess && ack.Msg == msgCFSUpgradeFailed {
		return domain.UpdateOutcome{Result: domain.UpdateSuccess, Message: ack.Msg}, nil
	}

	return domain.UpdateOutcome{}, rejected(status, ack.Msg)
}

func rejected(status int, msg string) error {
	if msg == "" {
		msg = fmt.Sprintf("portal returned status %d", status)
	}

	return fmt.Errorf("%w: %s", domain.ErrUpdateRejected, msg)
}
