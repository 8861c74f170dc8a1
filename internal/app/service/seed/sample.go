package seed

// sampleSubject is one subject of the starter catalog. Every unit gets a
// chapter of the same name holding one video per explainer.
type sampleSubject struct {
	Grade       int
	Name        string
	Description string
	Icon        string
	Color       string
	Units       []sampleUnit
}

type sampleUnit struct {
	Name       string
	Explainers []string
}

const (
	mathIcon    = "📐"
	mathColor   = "#3B82F6"
	scienceIcon = "🧪"
	englishIcon = "📚"
)

var sampleCatalog = []sampleSubject{
	{
		Grade: 6, Name: "Mathematics", Description: "Numbers, shapes and integers", Icon: mathIcon, Color: mathColor,
		Units: []sampleUnit{
			{"Knowing Our Numbers", []string{"Number Systems", "Place Value", "Reading Large Numbers"}},
			{"Whole Numbers", []string{"Introduction to Whole Numbers", "Properties of Whole Numbers", "Number Line"}},
			{"Playing with Numbers", []string{"Factors and Multiples", "Prime Numbers", "Divisibility Rules"}},
			{"Basic Geometrical Ideas", []string{"Points and Lines", "Line Segments", "Angles"}},
			{"Understanding Elementary Shapes", []string{"2D Shapes", "3D Shapes", "Symmetry"}},
			{"Integers", []string{"Negative Numbers", "Integer Operations", "Number Line with Integers"}},
		},
	},
	{
		Grade: 6, Name: "Science", Description: "Food, materials and separation", Icon: scienceIcon, Color: "#10B981",
		Units: []sampleUnit{
			{"Food: Where Does it Come From?", []string{"Plant and Animal Sources", "Food Chains", "Herbivores and Carnivores"}},
			{"Components of Food", []string{"Nutrients", "Balanced Diet", "Deficiency Diseases"}},
			{"Fibre to Fabric", []string{"Plant Fibres", "Animal Fibres", "Spinning and Weaving"}},
			{"Sorting Materials into Groups", []string{"Properties of Materials", "Hard and Soft Materials", "Transparent and Opaque"}},
			{"Separation of Substances", []string{"Handpicking", "Winnowing", "Sieving"}},
		},
	},
	{
		Grade: 6, Name: "English Literature", Description: "Stories, poems and comprehension", Icon: englishIcon, Color: "#A855F7",
		Units: []sampleUnit{
			{"A Tale of Two Birds", []string{"Story Analysis", "Character Study", "Moral Lessons"}},
			{"The Friendly Mongoose", []string{"Plot Development", "Theme Analysis", "Vocabulary Building"}},
			{"The Shepherd's Treasure", []string{"Wisdom Stories", "Cultural Values", "Reading Comprehension"}},
			{"The Old-Clock Shop", []string{"Descriptive Writing", "Setting Analysis", "Literary Devices"}},
			{"Tansen", []string{"Historical Stories", "Music and Culture", "Biography Writing"}},
		},
	},
	{
		Grade: 7, Name: "Mathematics", Description: "Fractions, equations and triangles", Icon: mathIcon, Color: mathColor,
		Units: []sampleUnit{
			{"Integers", []string{"Integer Operations", "Properties of Integers", "Applications"}},
			{"Fractions and Decimals", []string{"Fraction Operations", "Decimal Operations", "Converting Forms"}},
			{"Data Handling", []string{"Collecting Data", "Organizing Data", "Bar Graphs"}},
			{"Simple Equations", []string{"Solving Equations", "Word Problems", "Algebraic Expressions"}},
			{"Lines and Angles", []string{"Types of Lines", "Types of Angles", "Angle Relationships"}},
			{"The Triangle and its Properties", []string{"Triangle Types", "Triangle Properties", "Angle Sum Property"}},
		},
	},
	{
		Grade: 8, Name: "Mathematics", Description: "Rational numbers, quadrilaterals and squares", Icon: mathIcon, Color: mathColor,
		Units: []sampleUnit{
			{"Rational Numbers", []string{"Rational Number Properties", "Operations on Rationals", "Representation"}},
			{"Linear Equations in One Variable", []string{"Solving Linear Equations", "Applications", "Word Problems"}},
			{"Understanding Quadrilaterals", []string{"Types of Quadrilaterals", "Properties", "Angle Sum"}},
			{"Practical Geometry", []string{"Construction Techniques", "Using Instruments", "Geometric Drawings"}},
			{"Data Handling", []string{"Probability Basics", "Data Representation", "Statistics"}},
			{"Squares and Square Roots", []string{"Perfect Squares", "Finding Square Roots", "Applications"}},
		},
	},
	{
		Grade: 9, Name: "Mathematics", Description: "Number systems, polynomials and coordinate geometry", Icon: mathIcon, Color: mathColor,
		Units: []sampleUnit{
			{"Number Systems", []string{"Real Numbers", "Irrational Numbers", "Number Line"}},
			{"Polynomials", []string{"Polynomial Basics", "Operations", "Factorization"}},
			{"Coordinate Geometry", []string{"Cartesian Plane", "Plotting Points", "Distance Formula"}},
			{"Linear Equations in Two Variables", []string{"Solving Systems", "Graphical Method", "Applications"}},
			{"Introduction to Euclid's Geometry", []string{"Euclid's Axioms", "Geometric Proofs", "Definitions"}},
			{"Lines and Angles", []string{"Parallel Lines", "Transversals", "Angle Properties"}},
		},
	},
	{
		Grade: 10, Name: "Mathematics", Description: "Quadratics, progressions and triangles", Icon: mathIcon, Color: mathColor,
		Units: []sampleUnit{
			{"Real Numbers", []string{"Euclid's Division Lemma", "Fundamental Theorem", "Decimal Expansions"}},
			{"Polynomials", []string{"Polynomial Degrees", "Zeros of Polynomials", "Relationship between Zeros"}},
			{"Pair of Linear Equations in Two Variables", []string{"Graphical Method", "Algebraic Methods", "Word Problems"}},
			{"Quadratic Equations", []string{"Solving Methods", "Nature of Roots", "Applications"}},
			{"Arithmetic Progressions", []string{"AP Basics", "nth Term", "Sum of n Terms"}},
			{"Triangles", []string{"Similarity", "Congruence", "Pythagoras Theorem"}},
		},
	},
}
