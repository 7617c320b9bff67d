package classification

// Audience is the buyer segment a category is aimed at
type Audience string

const (
	AudienceWomen Audience = "femme"
	AudienceMen   Audience = "homme"
	AudienceKids  Audience = "enfant"
	AudienceMixed Audience = "mixte"
)

// Category is one leaf of the marketplace taxonomy. Keywords are the
// surface forms sellers actually write; they are matched against
// diacritic-folded text, so accented variants collapse together.
type Category struct {
	ID       int
	Label    string
	Path     []string
	Keywords []string
	Audience Audience
}

// FullPath joins the path segments the way the marketplace renders them
func (c Category) FullPath() string {
	out := ""
	for i, p := range c.Path {
		if i > 0 {
			out += " > "
		}
		out += p
	}
	return out
}

// Depth returns how deep the leaf sits in the tree
func (c Category) Depth() int {
	return len(c.Path)
}

// taxonomy mirrors the categories the target marketplace exposes in its
// submission form, with the keyword lists tuned on real seller titles
var taxonomy = []Category{
	// Femmes - hauts
	{ID: 1, Label: "T-shirts", Path: []string{"Femmes", "Vêtements", "Hauts", "T-shirts"},
		Keywords: []string{"t-shirt", "tshirt", "tee-shirt", "tee shirt", "t shirt"}, Audience: AudienceWomen},
	{ID: 2, Label: "Débardeurs", Path: []string{"Femmes", "Vêtements", "Hauts", "Débardeurs et tops sans manches"},
		Keywords: []string{"débardeur", "top sans manche", "top", "brassière", "crop top", "crop-top"}, Audience: AudienceWomen},
	{ID: 3, Label: "Chemises et blouses", Path: []string{"Femmes", "Vêtements", "Hauts", "Chemises et blouses"},
		Keywords: []string{"chemise", "blouse", "chemisier", "tunique"}, Audience: AudienceWomen},
	{ID: 4, Label: "Pulls et sweats", Path: []string{"Femmes", "Vêtements", "Hauts", "Pulls et sweats"},
		Keywords: []string{"pull", "sweat", "sweatshirt", "hoodie", "gilet", "cardigan", "tricot"}, Audience: AudienceWomen},
	{ID: 5, Label: "Vestes et manteaux", Path: []string{"Femmes", "Vêtements", "Manteaux et vestes"},
		Keywords: []string{"veste", "manteau", "blouson", "parka", "doudoune", "trench", "blazer", "perfecto", "bomber"}, Audience: AudienceWomen},

	// Femmes - bas
	{ID: 10, Label: "Jeans", Path: []string{"Femmes", "Vêtements", "Bas", "Jeans"},
		Keywords: []string{"jean", "jeans", "denim"}, Audience: AudienceWomen},
	{ID: 11, Label: "Pantalons", Path: []string{"Femmes", "Vêtements", "Bas", "Pantalons"},
		Keywords: []string{"pantalon", "pantacourt", "chino", "cargo", "jogger", "jogging"}, Audience: AudienceWomen},
	{ID: 12, Label: "Shorts", Path: []string{"Femmes", "Vêtements", "Bas", "Shorts"},
		Keywords: []string{"short", "bermuda"}, Audience: AudienceWomen},
	{ID: 13, Label: "Jupes", Path: []string{"Femmes", "Vêtements", "Bas", "Jupes"},
		Keywords: []string{"jupe", "mini-jupe", "minijupe"}, Audience: AudienceWomen},

	// Femmes - robes
	{ID: 20, Label: "Robes", Path: []string{"Femmes", "Vêtements", "Robes"},
		Keywords: []string{"robe", "robe longue", "robe courte", "robe midi", "robe de soirée", "robe d'été"}, Audience: AudienceWomen},
	{ID: 21, Label: "Combinaisons", Path: []string{"Femmes", "Vêtements", "Combinaisons et combishorts"},
		Keywords: []string{"combinaison", "combishort", "jumpsuit", "salopette"}, Audience: AudienceWomen},

	// Femmes - chaussures
	{ID: 30, Label: "Baskets", Path: []string{"Femmes", "Chaussures", "Baskets"},
		Keywords: []string{"basket", "baskets", "sneakers", "sneaker", "tennis"}, Audience: AudienceWomen},
	{ID: 31, Label: "Escarpins", Path: []string{"Femmes", "Chaussures", "Escarpins"},
		Keywords: []string{"escarpin", "escarpins", "talon", "talons", "stiletto"}, Audience: AudienceWomen},
	{ID: 32, Label: "Sandales", Path: []string{"Femmes", "Chaussures", "Sandales"},
		Keywords: []string{"sandale", "sandales", "tong", "tongs", "claquette", "claquettes", "mule", "mules"}, Audience: AudienceWomen},
	{ID: 33, Label: "Bottes", Path: []string{"Femmes", "Chaussures", "Bottes"},
		Keywords: []string{"botte", "bottes", "bottine", "bottines", "boots", "cuissardes"}, Audience: AudienceWomen},
	{ID: 34, Label: "Ballerines", Path: []string{"Femmes", "Chaussures", "Ballerines"},
		Keywords: []string{"ballerine", "ballerines"}, Audience: AudienceWomen},
	{ID: 35, Label: "Mocassins", Path: []string{"Femmes", "Chaussures", "Mocassins et chaussures bateau"},
		Keywords: []string{"mocassin", "mocassins", "loafer", "loafers", "derbies", "derby"}, Audience: AudienceWomen},

	// Femmes - sacs
	{ID: 40, Label: "Sacs à main", Path: []string{"Femmes", "Sacs", "Sacs à main"},
		Keywords: []string{"sac à main", "sacoche", "cabas"}, Audience: AudienceWomen},
	{ID: 41, Label: "Sacs bandoulière", Path: []string{"Femmes", "Sacs", "Sacs bandoulière"},
		Keywords: []string{"sac bandoulière", "besace", "pochette"}, Audience: AudienceWomen},
	{ID: 42, Label: "Sacs à dos", Path: []string{"Femmes", "Sacs", "Sacs à dos"},
		Keywords: []string{"sac à dos", "backpack"}, Audience: AudienceWomen},

	// Femmes - accessoires
	{ID: 50, Label: "Bijoux", Path: []string{"Femmes", "Accessoires", "Bijoux"},
		Keywords: []string{"bijou", "bijoux", "collier", "bracelet", "bague", "boucle d'oreille", "boucles d'oreilles", "pendentif"}, Audience: AudienceWomen},
	{ID: 51, Label: "Ceintures", Path: []string{"Femmes", "Accessoires", "Ceintures"},
		Keywords: []string{"ceinture"}, Audience: AudienceWomen},
	{ID: 52, Label: "Écharpes et foulards", Path: []string{"Femmes", "Accessoires", "Écharpes, foulards et châles"},
		Keywords: []string{"écharpe", "foulard", "châle", "pashmina", "étole"}, Audience: AudienceWomen},
	{ID: 53, Label: "Chapeaux et casquettes", Path: []string{"Femmes", "Accessoires", "Chapeaux et casquettes"},
		Keywords: []string{"chapeau", "casquette", "bonnet", "béret", "bob", "capeline"}, Audience: AudienceWomen},
	{ID: 54, Label: "Lunettes de soleil", Path: []string{"Femmes", "Accessoires", "Lunettes de soleil"},
		Keywords: []string{"lunette", "lunettes", "soleil", "sunglasses"}, Audience: AudienceWomen},
	{ID: 55, Label: "Montres", Path: []string{"Femmes", "Accessoires", "Montres"},
		Keywords: []string{"montre"}, Audience: AudienceWomen},

	// Hommes - hauts
	{ID: 100, Label: "T-shirts", Path: []string{"Hommes", "Vêtements", "Hauts", "T-shirts"},
		Keywords: []string{"t-shirt", "tshirt", "tee-shirt", "tee shirt", "t shirt"}, Audience: AudienceMen},
	{ID: 101, Label: "Chemises", Path: []string{"Hommes", "Vêtements", "Hauts", "Chemises"},
		Keywords: []string{"chemise", "chemisette"}, Audience: AudienceMen},
	{ID: 102, Label: "Pulls et sweats", Path: []string{"Hommes", "Vêtements", "Hauts", "Pulls et sweats"},
		Keywords: []string{"pull", "sweat", "sweatshirt", "hoodie", "gilet", "cardigan"}, Audience: AudienceMen},
	{ID: 103, Label: "Polos", Path: []string{"Hommes", "Vêtements", "Hauts", "Polos"},
		Keywords: []string{"polo"}, Audience: AudienceMen},
	{ID: 104, Label: "Vestes et manteaux", Path: []string{"Hommes", "Vêtements", "Manteaux et vestes"},
		Keywords: []string{"veste", "manteau", "blouson", "parka", "doudoune", "blazer", "perfecto", "bomber"}, Audience: AudienceMen},

	// Hommes - bas
	{ID: 110, Label: "Jeans", Path: []string{"Hommes", "Vêtements", "Bas", "Jeans"},
		Keywords: []string{"jean", "jeans", "denim"}, Audience: AudienceMen},
	{ID: 111, Label: "Pantalons", Path: []string{"Hommes", "Vêtements", "Bas", "Pantalons"},
		Keywords: []string{"pantalon", "chino", "cargo", "jogger", "jogging"}, Audience: AudienceMen},
	{ID: 112, Label: "Shorts", Path: []string{"Hommes", "Vêtements", "Bas", "Shorts"},
		Keywords: []string{"short", "bermuda"}, Audience: AudienceMen},

	// Hommes - chaussures
	{ID: 120, Label: "Baskets", Path: []string{"Hommes", "Chaussures", "Baskets"},
		Keywords: []string{"basket", "baskets", "sneakers", "sneaker", "tennis"}, Audience: AudienceMen},
	{ID: 121, Label: "Chaussures de ville", Path: []string{"Hommes", "Chaussures", "Chaussures de ville"},
		Keywords: []string{"chaussure de ville", "richelieu", "derby", "oxford", "mocassin", "loafer"}, Audience: AudienceMen},
	{ID: 122, Label: "Bottes", Path: []string{"Hommes", "Chaussures", "Bottes"},
		Keywords: []string{"botte", "bottes", "bottine", "bottines", "boots", "chelsea"}, Audience: AudienceMen},
	{ID: 123, Label: "Sandales", Path: []string{"Hommes", "Chaussures", "Sandales"},
		Keywords: []string{"sandale", "sandales", "tong", "tongs", "claquette", "claquettes"}, Audience: AudienceMen},

	// Hommes - sacs
	{ID: 130, Label: "Sacs à dos", Path: []string{"Hommes", "Sacs", "Sacs à dos"},
		Keywords: []string{"sac à dos", "backpack"}, Audience: AudienceMen},
	{ID: 131, Label: "Sacoches", Path: []string{"Hommes", "Sacs", "Besaces et sacoches"},
		Keywords: []string{"sacoche", "besace", "messenger", "bandoulière"}, Audience: AudienceMen},

	// Hommes - accessoires
	{ID: 140, Label: "Ceintures", Path: []string{"Hommes", "Accessoires", "Ceintures"},
		Keywords: []string{"ceinture"}, Audience: AudienceMen},
	{ID: 141, Label: "Chapeaux et casquettes", Path: []string{"Hommes", "Accessoires", "Chapeaux et casquettes"},
		Keywords: []string{"chapeau", "casquette", "bonnet", "bob", "béret"}, Audience: AudienceMen},
	{ID: 142, Label: "Montres", Path: []string{"Hommes", "Accessoires", "Montres"},
		Keywords: []string{"montre"}, Audience: AudienceMen},
	{ID: 143, Label: "Lunettes de soleil", Path: []string{"Hommes", "Accessoires", "Lunettes de soleil"},
		Keywords: []string{"lunette", "lunettes", "soleil"}, Audience: AudienceMen},
	{ID: 144, Label: "Cravates et nœuds papillon", Path: []string{"Hommes", "Accessoires", "Cravates et nœuds papillon"},
		Keywords: []string{"cravate", "noeud papillon", "nœud papillon"}, Audience: AudienceMen},

	// Enfants
	{ID: 200, Label: "Hauts fille", Path: []string{"Enfants", "Filles", "Vêtements", "Hauts"},
		Keywords: []string{"t-shirt", "pull", "sweat", "gilet", "chemise"}, Audience: AudienceKids},
	{ID: 201, Label: "Robes fille", Path: []string{"Enfants", "Filles", "Vêtements", "Robes"},
		Keywords: []string{"robe"}, Audience: AudienceKids},
	{ID: 202, Label: "Bas fille", Path: []string{"Enfants", "Filles", "Vêtements", "Bas"},
		Keywords: []string{"pantalon", "jean", "jupe", "short", "legging"}, Audience: AudienceKids},
	{ID: 210, Label: "Hauts garçon", Path: []string{"Enfants", "Garçons", "Vêtements", "Hauts"},
		Keywords: []string{"t-shirt", "pull", "sweat", "gilet", "chemise"}, Audience: AudienceKids},
	{ID: 211, Label: "Bas garçon", Path: []string{"Enfants", "Garçons", "Vêtements", "Bas"},
		Keywords: []string{"pantalon", "jean", "short", "jogging"}, Audience: AudienceKids},

	// Maison
	{ID: 300, Label: "Décoration", Path: []string{"Maison", "Décoration"},
		Keywords: []string{"déco", "décoration", "cadre", "vase", "bougie", "coussin", "miroir", "tableau"}, Audience: AudienceMixed},
	{ID: 301, Label: "Vaisselle", Path: []string{"Maison", "Cuisine et salle à manger", "Vaisselle"},
		Keywords: []string{"assiette", "verre", "tasse", "mug", "bol", "vaisselle", "couverts"}, Audience: AudienceMixed},
	{ID: 302, Label: "Linge de maison", Path: []string{"Maison", "Linge de maison"},
		Keywords: []string{"drap", "housse", "couette", "oreiller", "serviette", "nappe", "rideau"}, Audience: AudienceMixed},

	// Électronique
	{ID: 400, Label: "Smartphones", Path: []string{"Électronique", "Téléphones et accessoires", "Smartphones"},
		Keywords: []string{"téléphone", "smartphone", "iphone", "samsung", "huawei", "xiaomi"}, Audience: AudienceMixed},
	{ID: 401, Label: "Tablettes", Path: []string{"Électronique", "Tablettes et liseuses"},
		Keywords: []string{"tablette", "ipad", "kindle", "liseuse"}, Audience: AudienceMixed},
	{ID: 402, Label: "Consoles de jeux", Path: []string{"Électronique", "Consoles et jeux vidéo", "Consoles"},
		Keywords: []string{"console", "playstation", "xbox", "nintendo", "switch", "ps4", "ps5"}, Audience: AudienceMixed},
	{ID: 403, Label: "Jeux vidéo", Path: []string{"Électronique", "Consoles et jeux vidéo", "Jeux"},
		Keywords: []string{"jeu vidéo", "jeux vidéo"}, Audience: AudienceMixed},
	{ID: 404, Label: "Écouteurs et casques", Path: []string{"Électronique", "Audio", "Écouteurs et casques"},
		Keywords: []string{"écouteur", "casque", "airpods", "earbuds", "audio"}, Audience: AudienceMixed},

	// Beauté
	{ID: 500, Label: "Maquillage", Path: []string{"Beauté", "Maquillage"},
		Keywords: []string{"maquillage", "rouge à lèvres", "mascara", "fond de teint", "eye-liner", "fard"}, Audience: AudienceWomen},
	{ID: 501, Label: "Parfums", Path: []string{"Beauté", "Parfums"},
		Keywords: []string{"parfum", "eau de toilette", "eau de parfum", "cologne", "fragrance"}, Audience: AudienceMixed},
	{ID: 502, Label: "Soins", Path: []string{"Beauté", "Soins du visage et du corps"},
		Keywords: []string{"crème", "sérum", "soin", "lotion", "huile"}, Audience: AudienceMixed},

	// Sport
	{ID: 600, Label: "Vêtements de sport femme", Path: []string{"Sport", "Fitness et gym", "Vêtements de sport"},
		Keywords: []string{"legging sport", "brassière sport", "t-shirt sport", "short sport", "yoga", "fitness", "gym"}, Audience: AudienceWomen},
	{ID: 601, Label: "Vêtements de sport homme", Path: []string{"Sport", "Fitness et gym", "Vêtements de sport"},
		Keywords: []string{"short sport", "t-shirt sport", "débardeur sport", "jogging sport"}, Audience: AudienceMen},
	{ID: 602, Label: "Chaussures de sport", Path: []string{"Sport", "Chaussures de sport"},
		Keywords: []string{"chaussure de sport", "running", "course", "trail", "football", "basket sport"}, Audience: AudienceMixed},
	{ID: 603, Label: "Équipement sportif", Path: []string{"Sport", "Équipement sportif"},
		Keywords: []string{"haltère", "tapis", "corde à sauter", "bande élastique", "ballon", "raquette"}, Audience: AudienceMixed},
}

// audienceKeywords drive audience detection; the sets are disjoint from the
// category keywords except where a garment itself implies the segment
var audienceKeywords = map[Audience][]string{
	AudienceWomen: {
		"femme", "femmes", "madame", "lady", "women", "woman",
		"féminin", "pour elle", "taille 34", "taille 36", "taille 38",
		"taille 40", "taille 42", "taille 44", "taille xs",
		"robe", "jupe", "escarpin", "ballerine", "soutien-gorge", "culotte",
	},
	AudienceMen: {
		"homme", "hommes", "monsieur", "men", "man",
		"masculin", "pour lui", "taille m homme", "taille l homme", "taille xl",
		"cravate", "costume homme",
	},
	AudienceKids: {
		"enfant", "enfants", "bébé", "baby", "kids", "junior",
		"fille", "garçon", "ado", "adolescent",
		"taille 2 ans", "taille 3 ans", "taille 4 ans", "taille 5 ans",
		"taille 6 ans", "taille 8 ans", "taille 10 ans", "taille 12 ans", "taille 14 ans",
	},
}

// Categories returns the full taxonomy in declaration order
func Categories() []Category {
	return taxonomy
}

// CategoryByID looks up one leaf by its marketplace identifier
func CategoryByID(id int) (Category, bool) {
	for _, c := range taxonomy {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// SearchCategories matches a free-text query against labels, keywords and
// path segments, in that order of preference
func SearchCategories(query string, limit int) []Category {
	q := Normalize(query)
	if q == "" {
		return nil
	}
	var results []Category
	for _, c := range taxonomy {
		if matchesCategory(c, q) {
			results = append(results, c)
			if len(results) == limit {
				break
			}
		}
	}
	return results
}

func matchesCategory(c Category, normalizedQuery string) bool {
	if containsFold(c.Label, normalizedQuery) {
		return true
	}
	for _, kw := range c.Keywords {
		if containsFold(kw, normalizedQuery) {
			return true
		}
	}
	for _, p := range c.Path {
		if containsFold(p, normalizedQuery) {
			return true
		}
	}
	return false
}
