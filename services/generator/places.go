package generator

type Place struct {
	City  string
	State string
	Lat   float64
	Lng   float64
}

// BrazilianPlaces holds one city per federative unit.
var BrazilianPlaces = []Place{
	{City: "Rio Branco", State: "AC", Lat: -9.97499, Lng: -67.8243},
	{City: "Maceió", State: "AL", Lat: -9.66599, Lng: -35.735},
	{City: "Macapá", State: "AP", Lat: 0.034934, Lng: -51.0694},
	{City: "Manaus", State: "AM", Lat: -3.11866, Lng: -60.0212},
	{City: "Salvador", State: "BA", Lat: -12.9711, Lng: -38.5108},
	{City: "Fortaleza", State: "CE", Lat: -3.71722, Lng: -38.5434},
	{City: "Brasília", State: "DF", Lat: -15.7797, Lng: -47.9297},
	{City: "Vitória", State: "ES", Lat: -20.3194, Lng: -40.3378},
	{City: "Goiânia", State: "GO", Lat: -16.6799, Lng: -49.255},
	{City: "São Luís", State: "MA", Lat: -2.52972, Lng: -44.3028},
	{City: "Cuiabá", State: "MT", Lat: -15.5989, Lng: -56.0949},
	{City: "Campo Grande", State: "MS", Lat: -20.4428, Lng: -54.6464},
	{City: "Belo Horizonte", State: "MG", Lat: -19.9208, Lng: -43.9378},
	{City: "Belém", State: "PA", Lat: -1.45583, Lng: -48.5044},
	{City: "João Pessoa", State: "PB", Lat: -7.115, Lng: -34.8631},
	{City: "Curitiba", State: "PR", Lat: -25.4278, Lng: -49.2731},
	{City: "Recife", State: "PE", Lat: -8.05389, Lng: -34.8811},
	{City: "Teresina", State: "PI", Lat: -5.08917, Lng: -42.8019},
	{City: "Rio de Janeiro", State: "RJ", Lat: -22.9028, Lng: -43.2075},
	{City: "Natal", State: "RN", Lat: -5.795, Lng: -35.2094},
	{City: "Porto Alegre", State: "RS", Lat: -30.0331, Lng: -51.23},
	{City: "Porto Velho", State: "RO", Lat: -8.76194, Lng: -63.9039},
	{City: "Boa Vista", State: "RR", Lat: 2.81972, Lng: -60.6733},
	{City: "Florianópolis", State: "SC", Lat: -27.5969, Lng: -48.5495},
	{City: "São Paulo", State: "SP", Lat: -23.5475, Lng: -46.6361},
	{City: "Campinas", State: "SP", Lat: -22.9056, Lng: -47.0608},
	{City: "Aracaju", State: "SE", Lat: -10.9111, Lng: -37.0717},
	{City: "Palmas", State: "TO", Lat: -10.2128, Lng: -48.3603},
}
