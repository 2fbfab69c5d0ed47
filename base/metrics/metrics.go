package metrics

const (
	ControllerDecisionsH  = "The total number of decisions computed per rule set"
	ControllerDecisionsN  = "fuzzyctl_controller_decisions_total"
	ControllerNoDecisionH = "The total number of outputs for which no rule fired (centroid fell back to 0)"
	ControllerNoDecisionN = "fuzzyctl_controller_no_decision_total"

	ServerReqsReceivedH = "The total number of decision requests received"
	ServerReqsReceivedN = "fuzzyctl_server_reqs_received_total"
	ServerReqsFailedH   = "The total number of decision requests rejected"
	ServerReqsFailedN   = "fuzzyctl_server_reqs_failed_total"

	LabelRuleSet = "ruleset"
	LabelOutput  = "output"
)
