package dbtest

// Sample facility ids.
const (
	KraftwerkNord = "DE.F1"
	UsineSud      = "FR.F2"
	EmptyWorks    = "ES.F3"
	PlantaEste    = "ES.F4"
	RecyclingCo   = "IT.F5"
)

// Sample returns a small fixture covering the query edge cases:
//
//   - DE.F1 reports NOx in 2019-2022 (two 2020 rows that must be summed), CO2
//     and zinc to water, and has 2500 TJ of energy input in its latest year.
//   - FR.F2 releases 499,999 kg of CO2 in 2020.
//   - ES.F3 has no releases at all.
//   - ES.F4 releases exactly 500,000 kg of CO2 in 2020 plus NOx in 2016.
//   - IT.F5 has a name with LIKE wildcards and a CONFIDENTIAL release.
func Sample() Fixture {
	return Fixture{
		Sites: []Site{
			{ID: "DE.S1", Name: "Nord Site", Country: "DE"},
		},
		Facilities: []Facility{
			{
				ID: KraftwerkNord, SiteID: "DE.S1", Name: "Kraftwerk Nord", Parent: "Nord Energie AG",
				Street: "Hafenstrasse 1", PostalCode: "20457", City: "Hamburg", Country: "DE",
				ActivityCode: "1(c)", ActivityName: "Thermal power stations and other combustion installations",
				StartDate: "1998-05-01", Lat: Ptr(53.55), Lon: Ptr(9.99),
			},
			{
				ID: UsineSud, Name: "Usine Sud", Parent: "Sud Chimie SA", City: "Marseille", Country: "FR",
				ActivityCode: "4(a)(i)", ActivityName: "Organic chemicals", StartDate: "2015-01-01",
				Lat: Ptr(43.30), Lon: Ptr(5.37),
			},
			{
				ID: EmptyWorks, Name: "Empty Works", City: "Madrid", Country: "ES",
				ActivityCode: "1(c)", ActivityName: "Thermal power stations and other combustion installations",
			},
			{
				ID: PlantaEste, Name: "Planta Este", Parent: "Iberia Cement", City: "Valencia", Country: "ES",
				ActivityCode: "3(c)", ActivityName: "Cement clinker", StartDate: "1985",
				Lat: Ptr(39.47), Lon: Ptr(-0.37),
			},
			{
				ID: RecyclingCo, Name: "100% Recycling_Co", City: "Milano", Country: "IT",
				ActivityCode: "5(b)", ActivityName: "Waste incineration", StartDate: "2001-03-15",
				Lat: Ptr(45.46), Lon: Ptr(9.19),
			},
		},
		Installations: []Installation{
			{ID: "DE.I1", FacilityID: KraftwerkNord, ActivityCode: "1.1", ActivityName: "Combustion of fuels"},
			{ID: "IT.I5", FacilityID: RecyclingCo, ActivityCode: "5.2", ActivityName: "Incineration of waste"},
		},
		Parts: []Part{
			{ID: "DE.P1", InstallationID: "DE.I1"},
			{ID: "DE.P2", InstallationID: "DE.I1"},
			{ID: "IT.P5", InstallationID: "IT.I5"},
		},
		Energy: []Energy{
			{PartID: "DE.P1", Year: 2019, Fuel: "Natural gas", TJ: 2000},
			{PartID: "DE.P1", Year: 2021, Fuel: "Natural gas", TJ: 1500},
			{PartID: "DE.P2", Year: 2021, Fuel: "Coal", TJ: 1000},
			{PartID: "IT.P5", Year: 2020, Fuel: "Biomass", TJ: 600},
		},
		Releases: []Release{
			{FacilityID: KraftwerkNord, Year: 2019, Code: "NOX", Name: "Nitrogen oxides (NOX)", Medium: "AIR", Kg: 800_000, MethodCode: "M"},
			{FacilityID: KraftwerkNord, Year: 2020, Code: "NOX", Name: "Nitrogen oxides (NOX)", Medium: "AIR", Kg: 500_000, MethodCode: "M"},
			{FacilityID: KraftwerkNord, Year: 2020, Code: "NOX", Name: "Nitrogen oxides (NOX)", Medium: "AIR", Kg: 400_000, MethodCode: "M"},
			{FacilityID: KraftwerkNord, Year: 2021, Code: "NOX", Name: "Nitrogen oxides (NOX)", Medium: "AIR", Kg: 1_000_000, MethodCode: "M"},
			{FacilityID: KraftwerkNord, Year: 2022, Code: "NOX", Name: "Nitrogen oxides (NOX)", Medium: "AIR", Kg: 50},
			{FacilityID: KraftwerkNord, Year: 2020, Code: "CO2", Name: "Carbon dioxide (CO2)", Medium: "AIR", Kg: 2_000_000_000, MethodCode: "C"},
			{FacilityID: KraftwerkNord, Year: 2020, Code: "ZN", Name: "Zinc and compounds (as Zn)", Medium: "WATER", Kg: 1_200, MethodCode: "E"},
			{FacilityID: UsineSud, Year: 2020, Code: "CO2", Name: "Carbon dioxide (CO2)", Medium: "AIR", Kg: 499_999, MethodCode: "C"},
			{FacilityID: PlantaEste, Year: 2020, Code: "CO2", Name: "Carbon dioxide (CO2)", Medium: "AIR", Kg: 500_000, MethodCode: "C"},
			{FacilityID: PlantaEste, Year: 2016, Code: "NOX", Name: "Nitrogen oxides (NOX)", Medium: "AIR", Kg: 300_000, MethodCode: "M"},
			{FacilityID: RecyclingCo, Year: 2021, Code: "PCDD+PCDF", Name: "PCDD + PCDF (dioxins + furans) (as Teq)", Medium: "AIR", Kg: 0.0002, MethodCode: "M"},
			{FacilityID: RecyclingCo, Year: 2021, Code: "CONFIDENTIAL", Name: "CONFIDENTIAL", Medium: "AIR", Kg: 10},
		},
	}
}
