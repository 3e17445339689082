package rules

// incomeRules returns the patterns checked against positive amounts before
// the expense table.
func incomeRules() []Rule {
	return []Rule{
		{
			Name:       "Direct Deposit",
			Pattern:    `\b(DIRECTDEP|DIRECT\s*DEP|PAYROLL|SALARY|WAGES)\b`,
			Category:   "Income",
			Confidence: 0.95,
		},
		{
			Name:       "Interest and Dividends",
			Pattern:    `\b(INTEREST|INT\s*EARNED|DIVIDEND|DIV\s*PAYMENT)\b`,
			Category:   "Income",
			Confidence: 0.90,
		},
		{
			Name:       "Tax Refund",
			Pattern:    `\b(TAX\s*REF|IRS\s*TREAS|STATE\s*TAX\s*REF)\b`,
			Category:   "Income",
			Confidence: 0.95,
		},
		{
			Name:       "Refund or Cashback",
			Pattern:    `\b(REFUND|REIMB|REIMBURSEMENT|CASHBACK|CASH\s*BACK)\b`,
			Category:   "Income",
			Confidence: 0.85,
		},
	}
}

// defaultRules returns the built-in expense rule table. Order matters: more
// specific merchants precede broad keyword rules so "UBER EATS" lands in
// Dining before the Transport rule sees "UBER".
func defaultRules() []Rule {
	return []Rule{
		// Subscriptions
		{Name: "Netflix", Pattern: `\bNETFLIX\b`, Category: "Subscriptions", Merchant: "Netflix", Confidence: 0.95},
		{Name: "Spotify", Pattern: `\bSPOTIFY\b`, Category: "Subscriptions", Merchant: "Spotify", Confidence: 0.95},
		{Name: "Hulu", Pattern: `\bHULU\b`, Category: "Subscriptions", Merchant: "Hulu", Confidence: 0.95},
		{Name: "Disney Plus", Pattern: `DISNEY\s*(PLUS|\+)`, Category: "Subscriptions", Merchant: "Disney+", Confidence: 0.95},
		{Name: "HBO Max", Pattern: `\b(HBO|MAX\.COM)\b`, Category: "Subscriptions", Merchant: "Max", Confidence: 0.9},
		{Name: "YouTube Premium", Pattern: `YOUTUBE\s*(PREMIUM|TV)`, Category: "Subscriptions", Merchant: "YouTube", Confidence: 0.9},
		{Name: "Apple Services", Pattern: `APPLE\.COM/BILL`, Category: "Subscriptions", Merchant: "Apple", Confidence: 0.9},
		{Name: "Audible", Pattern: `\bAUDIBLE\b`, Category: "Subscriptions", Merchant: "Audible", Confidence: 0.9},
		{Name: "Generic Subscription", Pattern: `\b(SUBSCRIPTION|MEMBERSHIP\s*FEE)\b`, Category: "Subscriptions", Confidence: 0.7},

		// Dining (before Transport so UBER EATS outranks UBER)
		{Name: "Food Delivery", Pattern: `\b(DOORDASH|UBER\s*EATS|GRUBHUB|POSTMATES|DELIVEROO)\b`, Category: "Dining", Confidence: 0.9},
		{Name: "Starbucks", Pattern: `\bSTARBUCKS\b`, Category: "Dining", Merchant: "Starbucks", Confidence: 0.95},
		{Name: "Fast Food", Pattern: `\b(MCDONALD|BURGER\s*KING|CHIPOTLE|TACO\s*BELL|WENDY'?S|SUBWAY|KFC)\b`, Category: "Dining", Confidence: 0.9},
		{Name: "Restaurants", Pattern: `\b(RESTAURANT|PIZZA|PIZZERIA|CAFE|COFFEE|BISTRO|DINER|BAKERY|BREWERY)\b`, Category: "Dining", Confidence: 0.8},

		// Groceries
		{Name: "Grocery Chains", Pattern: `\b(WHOLE\s*FOODS|TRADER\s*JOE|SAFEWAY|KROGER|ALDI|WEGMANS|PUBLIX|ALBERTSONS)\b`, Category: "Groceries", Confidence: 0.95},
		{Name: "Costco", Pattern: `\bCOSTCO\b`, Category: "Groceries", Merchant: "Costco", Confidence: 0.85},
		{Name: "Grocery Keywords", Pattern: `\b(GROCERY|GROCER|SUPERMARKET|MARKET\s*PLACE|FOOD\s*MART)\b`, Category: "Groceries", Confidence: 0.8},

		// Transport
		{Name: "Rideshare", Pattern: `\b(UBER|LYFT)\b`, Category: "Transport", Confidence: 0.9},
		{Name: "Gas Stations", Pattern: `\b(SHELL|CHEVRON|EXXON|MOBIL|ARCO|BP|TEXACO|76|VALERO)\b`, Category: "Transport", Confidence: 0.85},
		{Name: "Transit", Pattern: `\b(TRANSIT|METRO|BART|MTA|AMTRAK|CALTRAIN|PARKING|TOLL|FASTRAK)\b`, Category: "Transport", Confidence: 0.85},

		// Shopping
		{Name: "Amazon", Pattern: `\b(AMAZON|AMZN)\b`, Category: "Shopping", Merchant: "Amazon", Confidence: 0.85},
		{Name: "Big Box", Pattern: `\b(TARGET|WALMART|WAL-MART|BEST\s*BUY|HOME\s*DEPOT|LOWE'?S|IKEA)\b`, Category: "Shopping", Confidence: 0.85},
		{Name: "Marketplaces", Pattern: `\b(EBAY|ETSY|WAYFAIR)\b`, Category: "Shopping", Confidence: 0.85},

		// Entertainment
		{Name: "Gaming", Pattern: `\b(STEAM|PLAYSTATION|NINTENDO|XBOX|EPIC\s*GAMES)\b`, Category: "Entertainment", Confidence: 0.9},
		{Name: "Events and Movies", Pattern: `\b(AMC|CINEMA|CINEMARK|TICKETMASTER|STUBHUB|FANDANGO|THEATRE|THEATER)\b`, Category: "Entertainment", Confidence: 0.85},

		// Utilities
		{Name: "Telecom", Pattern: `\b(COMCAST|XFINITY|VERIZON|T-MOBILE|TMOBILE|AT&T|SPECTRUM|CENTURYLINK)\b`, Category: "Utilities", Confidence: 0.9},
		{Name: "Utility Keywords", Pattern: `\b(ELECTRIC|GAS\s*CO|WATER\s*(DEPT|DISTRICT|BILL)|PG&E|CON\s*EDISON|SEWER|INTERNET)\b`, Category: "Utilities", Confidence: 0.8},

		// Housing
		{Name: "Housing", Pattern: `\b(RENT\s*PAYMENT|MORTGAGE|HOA\s*DUES|PROPERTY\s*(MGMT|MANAGEMENT))\b`, Category: "Housing", Confidence: 0.85},

		// Health
		{Name: "Pharmacies", Pattern: `\b(CVS|WALGREENS|RITE\s*AID|PHARMACY)\b`, Category: "Health", Confidence: 0.85},
		{Name: "Medical", Pattern: `\b(MEDICAL|DENTAL|CLINIC|HOSPITAL|OPTOMETRY|URGENT\s*CARE)\b`, Category: "Health", Confidence: 0.8},
		{Name: "Fitness", Pattern: `\b(GYM|FITNESS|CROSSFIT|YOGA|PELOTON)\b`, Category: "Health", Confidence: 0.8},

		// Insurance
		{Name: "Insurers", Pattern: `\b(GEICO|ALLSTATE|PROGRESSIVE|STATE\s*FARM|AETNA|CIGNA)\b`, Category: "Insurance", Confidence: 0.9},
		{Name: "Insurance Keyword", Pattern: `\bINSURANCE\b`, Category: "Insurance", Confidence: 0.8},

		// Travel
		{Name: "Airlines", Pattern: `\b(DELTA|UNITED|SOUTHWEST|ALASKA\s*AIR|AMERICAN\s*AIR|JETBLUE|AIRLINES?)\b`, Category: "Travel", Confidence: 0.85},
		{Name: "Lodging", Pattern: `\b(AIRBNB|MARRIOTT|HILTON|HYATT|HOTEL|MOTEL|EXPEDIA|BOOKING\.COM|VRBO)\b`, Category: "Travel", Confidence: 0.85},

		// Education
		{Name: "Education", Pattern: `\b(UDEMY|COURSERA|TUITION|UNIVERSITY|COLLEGE)\b`, Category: "Education", Confidence: 0.85},

		// Fees
		{Name: "Bank Fees", Pattern: `\b(OVERDRAFT|LATE\s*FEE|SERVICE\s*(FEE|CHG)|ATM\s*FEE|ANNUAL\s*FEE|FINANCE\s*CHARGE)\b`, Category: "Fees", Confidence: 0.9},

		// Financial
		{Name: "Brokerages", Pattern: `\b(ROBINHOOD|FIDELITY|VANGUARD|SCHWAB|COINBASE|E\*TRADE|WEALTHFRONT|BETTERMENT)\b`, Category: "Financial", Confidence: 0.85},
		{Name: "Financial Keywords", Pattern: `\b(BROKERAGE|INVESTMENT|401K|IRA\s*CONTRIB)\b`, Category: "Financial", Confidence: 0.8},
	}
}
