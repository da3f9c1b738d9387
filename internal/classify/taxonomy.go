package classify

// LabelPatterns binds one harm label to its ordered regex alternatives.
// Alternatives are OR-combined into a single case-insensitive pattern at
// compile time.
type LabelPatterns struct {
	Label    string
	Patterns []string
}

// DefaultTaxonomy returns the harm-mechanism taxonomy. Labels are not
// mutually exclusive: a narrative may match any number of them.
func DefaultTaxonomy() []LabelPatterns {
	return []LabelPatterns{
		{
			Label: "Unauthorized Fees",
			Patterns: []string{
				`fee.*(?:without|no|never).*(?:authorization|consent|permission|approval)`,
				`(?:charged|billing|billed).*(?:unauthorized|without.*permission)`,
				`fee.*(?:did not|didn't).*(?:authorize|approve|consent)`,
				`never.*(?:agreed|authorized|approved).*fee`,
			},
		},
		{
			Label: "Excessive Fees",
			Patterns: []string{
				`fee.*(?:excessive|too high|unreasonable|inflated|outrageous)`,
				`(?:overcharged|overcharge|charging too much)`,
				`fee.*(?:amount|price).*(?:excessive|ridiculous|unfair)`,
				`exorbitant.*fee`,
			},
		},
		{
			Label: "Hidden Fees",
			Patterns: []string{
				`(?:hidden|undisclosed|surprise).*fee`,
				`fee.*(?:not disclosed|never told|didn't tell|wasn't told)`,
				`fee.*(?:didn't know|unaware|no notice)`,
				`unexpected.*(?:fee|charge)`,
			},
		},
		{
			Label: "Account Closure Without Notice",
			Patterns: []string{
				`(?:closed|shut down|terminated).*account.*(?:without|no).*(?:notice|warning|explanation)`,
				`account.*(?:suddenly|unexpectedly).*closed`,
				`closed.*account.*(?:no reason|without cause)`,
			},
		},
		{
			Label: "Denied Access to Funds",
			Patterns: []string{
				`(?:can't|cannot|unable to).*(?:access|withdraw|get).*(?:funds|money)`,
				`(?:froze|frozen|locked).*(?:account|funds)`,
				`denied.*access.*(?:money|funds|account)`,
				`withhold.*(?:funds|money|payment)`,
			},
		},
		{
			Label: "Credit Report Errors",
			Patterns: []string{
				`(?:incorrect|wrong|inaccurate|false).*(?:information|entry).*credit report`,
				`credit report.*(?:error|mistake|wrong)`,
				`reporting.*(?:incorrect|inaccurate|false).*information`,
				`(?:negative|derogatory).*(?:mark|entry).*(?:error|incorrect|wrong)`,
			},
		},
		{
			Label: "Identity Theft",
			Patterns: []string{
				`identity.*(?:theft|stolen|fraud)`,
				`someone.*(?:opened|used).*(?:account|credit).*(?:my name|without)`,
				`fraudulent.*account.*(?:my name|opened)`,
				`victim.*identity theft`,
			},
		},
		{
			Label: "Harassment by Debt Collector",
			Patterns: []string{
				`(?:harass|harassment|threatening|threat).*(?:collector|collection|debt)`,
				`(?:calling|called|contact).*(?:repeatedly|constantly|multiple times).*(?:day|hour)`,
				`debt collector.*(?:abusive|rude|threatening|aggressive)`,
				`(?:won't stop|keep calling|constant calls)`,
			},
		},
		{
			Label: "Refused Refund",
			Patterns: []string{
				`(?:refused|denied|won't|will not).*(?:refund|return|reimburse)`,
				`refund.*(?:refused|denied|rejected)`,
				`(?:request|asked for).*refund.*(?:denied|refused)`,
				`entitled.*refund.*(?:refused|won't)`,
			},
		},
		{
			Label: "Misleading Marketing",
			Patterns: []string{
				`(?:misled|deceived|tricked|lied).*(?:advertisement|marketing|promotion)`,
				`(?:false|misleading|deceptive).*(?:advertising|marketing|claim)`,
				`promised.*(?:but|however|never).*(?:delivered|received)`,
				`bait and switch`,
			},
		},
		{
			Label: "Service Not Provided",
			Patterns: []string{
				`(?:paid for|purchased).*(?:never received|didn't receive|not provided)`,
				`service.*(?:not provided|never delivered|didn't get)`,
				`charged.*(?:but|without).*(?:receiving|getting).*service`,
				`no service.*(?:provided|delivered|rendered)`,
			},
		},
		{
			Label: "Billing Disputes",
			Patterns: []string{
				`(?:billed|charged).*(?:wrong amount|incorrect|error)`,
				`billing.*(?:error|mistake|incorrect|wrong)`,
				`charged.*(?:twice|multiple times|duplicate)`,
				`statement.*(?:incorrect|wrong|error)`,
			},
		},
		{
			Label: "Poor Customer Service",
			Patterns: []string{
				`(?:customer service|representative|agent).*(?:rude|unhelpful|dismissive)`,
				`(?:can't|cannot|unable to).*(?:reach|contact|speak to).*(?:representative|someone)`,
				`(?:ignored|dismiss|refuse to help)`,
				`(?:transferred|transfer).*(?:multiple times|repeatedly|back and forth)`,
			},
		},
		{
			Label: "Loan Modification Denied",
			Patterns: []string{
				`(?:denied|rejected|refused).*(?:loan modification|mortgage modification)`,
				`modification.*(?:request|application).*(?:denied|rejected)`,
				`foreclosure.*(?:despite|even though).*modification`,
				`(?:won't|will not).*(?:modify|work with).*loan`,
			},
		},
		{
			Label: "Predatory Lending",
			Patterns: []string{
				`predatory.*(?:lending|loan|practice)`,
				`(?:high|excessive).*interest.*(?:rate|APR)`,
				`(?:trapped|stuck).*(?:loan|debt)`,
				`(?:misleading|deceptive).*loan.*terms`,
			},
		},
	}
}
