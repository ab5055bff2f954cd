// Reference scenario: the November 2023 Dutch general election, reduced to
// the five parties that shaped the formation. Vote counts are in thousands.
package scenario

// Netherlands2023 returns the five-party 2023 reference scenario used as
// the golden regression case. Axis placements and issue stances are coarse
// but ordinal: what matters is the relative geometry, not decimals.
func Netherlands2023() Scenario {
	return Scenario{
		Name:       "Netherlands 2023",
		TotalSeats: 150,
		Threshold:  1.0 / 150,
		IssueWeights: map[string]float64{
			"migration":  3.0,
			"housing":    2.5,
			"climate":    2.0,
			"healthcare": 1.5,
			"europe":     1.0,
		},
		Parties: []PartySpec{
			{
				ID: "pvv", Name: "PVV", Votes: 2451,
				Economic: -1, Social: 8,
				Positions: map[string]float64{
					"migration": 9, "housing": 2, "climate": 6, "healthcare": -3, "europe": 8,
				},
			},
			{
				ID: "gl-pvda", Name: "GroenLinks-PvdA", Votes: 1644,
				Economic: -6, Social: -7,
				Positions: map[string]float64{
					"migration": -5, "housing": -6, "climate": -9, "healthcare": -6, "europe": -7,
				},
				Exclusions: []string{"pvv"},
			},
			{
				ID: "vvd", Name: "VVD", Votes: 1590,
				Economic: 7, Social: 2,
				Positions: map[string]float64{
					"migration": 4, "housing": 3, "climate": 1, "healthcare": 2, "europe": -3,
				},
			},
			{
				ID: "nsc", Name: "NSC", Votes: 1344,
				Economic: 2, Social: 3,
				Positions: map[string]float64{
					"migration": 3, "housing": -2, "climate": -1, "healthcare": -2, "europe": -2,
				},
			},
			{
				ID: "bbb", Name: "BBB", Votes: 485,
				Economic: 3, Social: 4,
				Positions: map[string]float64{
					"migration": 4, "housing": 1, "climate": 5, "healthcare": -1, "europe": 2,
				},
			},
		},
	}
}
